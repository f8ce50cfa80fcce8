// Package returnebook implements the early return of a digital loan by its reader.
package returnebook
