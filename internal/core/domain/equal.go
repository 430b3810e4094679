package domain

import (
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

// Targets compare content semantically: nil and empty collections are equal.
var contentOptions = cmp.Options{cmpopts.EquateEmpty()}

// SameContent reports whether two time series hold the same content.
func (ts TimeSeries) SameContent(o TimeSeries) bool {
	return cmp.Equal(ts, o, contentOptions)
}

// SameContent reports whether two interval tables hold the same content.
func (t TimeIntervals) SameContent(o TimeIntervals) bool {
	return cmp.Equal(t, o, contentOptions)
}

// SameContent reports whether two session headers match.
func (s Session) SameContent(o Session) bool {
	return cmp.Equal(s, o, contentOptions)
}

// SameHeader reports whether two processing modules share name and description.
func (m ProcessingModule) SameHeader(o ProcessingModule) bool {
	return m.Name == o.Name && m.Description == o.Description
}

// SameContent reports whether two documents hold the same content.
func (d *Document) SameContent(o *Document) bool {
	return cmp.Equal(d, o, contentOptions)
}
