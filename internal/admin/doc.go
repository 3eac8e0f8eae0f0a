// Package admin implements the operator command line: applying migrations,
// creating users and purging expired refresh tokens.
package admin
