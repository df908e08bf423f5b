// Package cli implements the recipekeeper management commands.
//
// Each command parses its own flags and runs against an app.App:
//
//	manage -d data/recipekeeper.db migrate
//	manage createsuperuser -email admin@example.com
//	manage addrecipe -email cook@example.com -title Soup -minutes 5 -price 5.50 -tags Vegan,Lunch
//
// Passwords are read from the terminal without echo. New passwords are
// entered twice, or taken from the RECIPEKEEPER_PASSWORD environment
// variable when it is set.
package cli
