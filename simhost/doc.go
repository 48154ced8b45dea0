// Package simhost is an in-process stand-in for the spreadsheet host.
//
// It implements the coercion and release primitives the codec borrows from
// the host, with the conversion rules a spreadsheet applies to cell values:
//
//	from \ to   num            str             bool              multi
//	─────────────────────────────────────────────────────────────────────
//	num         copy           %G, 15 digits   x != 0            1x1
//	int         widen          decimal         x != 0            1x1
//	bool        1 / 0          TRUE / FALSE    copy              1x1
//	str         parse or fail  copy            TRUE/FALSE or     1x1
//	                                           fail
//	missing     0              ""              false             1x1
//	multi       top-left element, coerced again                  copy
//	err         fail           fail            fail              1x1
//
// Every value Coerce returns carries variant.BitXLFree and is recorded in a
// resource.Table until it is handed back to Release. Outstanding reports
// how many are still live, so tests can assert that nothing leaked, and a
// second Release of the same value fails with a double_release error.
//
// Usage:
//
//	host := simhost.New(simhost.WithLogger(logger))
//	defer host.Close()
//
//	c := codec.New(host)
//	n, err := c.DecodeLong(&v, 0)
//
//	if host.Outstanding() != 0 {
//	    // a coercion temporary was not released
//	}
package simhost
