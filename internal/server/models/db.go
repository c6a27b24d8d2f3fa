// Package models defines server-side records persisted by the credential store.
package models
