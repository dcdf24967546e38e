// Package api provides the UniHub REST API.
//
//	@title						UniHub API
//	@version					1.0
//	@description				Contacts, calendar and mail for a single user, plus account administration.
//	@BasePath					/
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				"Bearer " followed by the token returned by sign-in or sign-up.
package api
