package cli

import (
	"context"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/dmitrijs2005/recipekeeper/internal/common"
	"github.com/dmitrijs2005/recipekeeper/internal/filex"
	"github.com/dmitrijs2005/recipekeeper/internal/models"
	"github.com/dmitrijs2005/recipekeeper/internal/netx"
	"github.com/shopspring/decimal"
)

func (c *CLI) addTag(ctx context.Context, args []string) error {
	fs := c.flagSet("addtag")
	email := fs.String("email", "", "owner email")
	name := fs.String("name", "", "tag name")
	if err := parse(fs, args); err != nil {
		return err
	}
	if err := required(fs, map[string]string{"email": *email}); err != nil {
		return err
	}

	owner, err := c.account(ctx, *email)
	if err != nil {
		return err
	}
	tag, err := c.app.Tags.Create(ctx, owner.ID, *name)
	if err != nil {
		return err
	}

	c.logger.Info(ctx, "tag created", "tag_id", tag.ID, "account_id", owner.ID)
	fmt.Fprintf(c.out, "%s\t%s\n", tag.ID, tag)
	return nil
}

func (c *CLI) listTags(ctx context.Context, args []string) error {
	fs := c.flagSet("listtags")
	email := fs.String("email", "", "owner email")
	if err := parse(fs, args); err != nil {
		return err
	}
	if err := required(fs, map[string]string{"email": *email}); err != nil {
		return err
	}

	owner, err := c.account(ctx, *email)
	if err != nil {
		return err
	}
	tags, err := c.app.Tags.List(ctx, owner.ID)
	if err != nil {
		return err
	}
	for _, t := range tags {
		fmt.Fprintf(c.out, "%s\t%s\n", t.ID, t)
	}
	return nil
}

// tagIDs resolves tag names of the owner to ids.
func (c *CLI) tagIDs(ctx context.Context, ownerID string, names []string) ([]string, error) {
	if len(names) == 0 {
		return nil, nil
	}
	tags, err := c.app.Tags.List(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	byName := make(map[string]string, len(tags))
	for _, t := range tags {
		if _, ok := byName[t.Name]; !ok {
			byName[t.Name] = t.ID
		}
	}

	ids := make([]string, 0, len(names))
	for _, n := range names {
		id, ok := byName[n]
		if !ok {
			return nil, fmt.Errorf("%w: unknown tag %q", common.ErrorInvalidReference, n)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func (c *CLI) addRecipe(ctx context.Context, args []string) error {
	fs := c.flagSet("addrecipe")
	email := fs.String("email", "", "owner email")
	title := fs.String("title", "", "recipe title")
	description := fs.String("description", "", "recipe description")
	link := fs.String("link", "", "external link")
	minutes := fs.Int("minutes", 0, "preparation time in minutes")
	price := fs.String("price", "0", "price, up to two decimal places")
	tags := fs.String("tags", "", "comma separated tag names")
	if err := parse(fs, args); err != nil {
		return err
	}
	if err := required(fs, map[string]string{"email": *email}); err != nil {
		return err
	}

	amount, err := decimal.NewFromString(*price)
	if err != nil {
		return fmt.Errorf("%w: invalid price %q", common.ErrorValidation, *price)
	}

	owner, err := c.account(ctx, *email)
	if err != nil {
		return err
	}
	ids, err := c.tagIDs(ctx, owner.ID, splitList(*tags))
	if err != nil {
		return err
	}

	r, err := c.app.Recipes.Create(ctx, owner.ID, models.RecipeParams{
		Title:       *title,
		Description: *description,
		Link:        *link,
		TimeMinutes: *minutes,
		Price:       amount,
	}, ids...)
	if err != nil {
		return err
	}

	c.logger.Info(ctx, "recipe created", "recipe_id", r.ID, "account_id", owner.ID)
	fmt.Fprintf(c.out, "%s\t%s\n", r.ID, r)
	return nil
}

func (c *CLI) listRecipes(ctx context.Context, args []string) error {
	fs := c.flagSet("listrecipes")
	email := fs.String("email", "", "owner email")
	tags := fs.String("tags", "", "only recipes with any of these comma separated tag names")
	if err := parse(fs, args); err != nil {
		return err
	}
	if err := required(fs, map[string]string{"email": *email}); err != nil {
		return err
	}

	owner, err := c.account(ctx, *email)
	if err != nil {
		return err
	}
	ids, err := c.tagIDs(ctx, owner.ID, splitList(*tags))
	if err != nil {
		return err
	}

	list, err := c.app.Recipes.List(ctx, owner.ID, ids...)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTITLE\tMINUTES\tPRICE\tTAGS\tIMAGE")
	for _, r := range list {
		names := make([]string, 0, len(r.Tags))
		for _, t := range r.Tags {
			names = append(names, t.Name)
		}
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\t%s\n",
			r.ID, r, r.TimeMinutes, r.Price.StringFixed(models.PriceDecimalPlaces),
			strings.Join(names, ","), r.ImageStatus)
	}
	return tw.Flush()
}

func (c *CLI) uploadImage(ctx context.Context, args []string) error {
	fs := c.flagSet("uploadimage")
	email := fs.String("email", "", "owner email")
	recipeID := fs.String("recipe", "", "recipe id")
	path := fs.String("file", "", "image file")
	if err := parse(fs, args); err != nil {
		return err
	}
	if err := required(fs, map[string]string{"email": *email, "recipe": *recipeID, "file": *path}); err != nil {
		return err
	}

	data, contentType, err := filex.ReadImage(*path)
	if err != nil {
		return err
	}

	owner, err := c.account(ctx, *email)
	if err != nil {
		return err
	}

	key, url, err := c.app.Images.RequestUpload(ctx, owner.ID, *recipeID, *path)
	if err != nil {
		return err
	}
	if err := netx.UploadToPresignedURL(ctx, url, data, contentType); err != nil {
		return err
	}
	if err := c.app.Images.MarkUploaded(ctx, owner.ID, *recipeID); err != nil {
		return err
	}

	c.logger.Info(ctx, "recipe image uploaded", "recipe_id", *recipeID, "key", key, "bytes", len(data))
	fmt.Fprintf(c.out, "Uploaded %s\n", key)
	return nil
}

func (c *CLI) imageURL(ctx context.Context, args []string) error {
	fs := c.flagSet("imageurl")
	email := fs.String("email", "", "owner email")
	recipeID := fs.String("recipe", "", "recipe id")
	if err := parse(fs, args); err != nil {
		return err
	}
	if err := required(fs, map[string]string{"email": *email, "recipe": *recipeID}); err != nil {
		return err
	}

	owner, err := c.account(ctx, *email)
	if err != nil {
		return err
	}
	url, err := c.app.Images.DownloadURL(ctx, owner.ID, *recipeID)
	if err != nil {
		return err
	}
	fmt.Fprintln(c.out, url)
	return nil
}
