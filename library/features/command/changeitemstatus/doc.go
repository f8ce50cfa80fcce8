// Package changeitemstatus implements moving a physical copy in or out of circulation.
//
// A librarian sends a copy to MAINTENANCE, marks it LOST or RETIRED, holds it as RESERVED, or puts
// it back on the shelf as AVAILABLE. ON_BORROW is only reached through a pickup and left through a
// return. Taking an AVAILABLE copy away is refused if the book's approved requests would then
// exceed its supply; a copy that becomes AVAILABLE promotes the book's queue.
package changeitemstatus
