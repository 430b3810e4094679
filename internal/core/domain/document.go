package domain

// Document is the unified output of a conversion run.
// Plugins contribute devices, time series and interval tables; the converter
// owns the session header.
type Document struct {
	Session     Session
	Devices     map[string]Device
	Acquisition map[string]TimeSeries
	Processing  map[string]ProcessingModule
	Intervals   map[string]TimeIntervals
}

// Session is the document header derived from the "NWBFile" and "Subject"
// metadata sections.
type Session struct {
	Identifier  string
	Description string
	StartTime   string
	Extra       Metadata
	Subject     Metadata
}

// IsZero reports whether no header has been written yet.
func (s Session) IsZero() bool {
	return s.Identifier == "" && s.Description == "" && s.StartTime == "" &&
		len(s.Extra) == 0 && len(s.Subject) == 0
}

// Device describes acquisition hardware.
type Device struct {
	Name         string
	Description  string
	Manufacturer string
}

// ProcessingModule groups derived time series under a name.
type ProcessingModule struct {
	Name        string
	Description string
	TimeSeries  map[string]TimeSeries
}

// TimeSeries is a regularly sampled, multi-channel int16 signal.
// Data is frame-major: Data[frame*NumChannels+channel].
type TimeSeries struct {
	Name         string
	Description  string
	Unit         string
	Rate         float64
	StartingTime float64
	// Conversion scales stored integers to Unit.
	Conversion float64
	Offset     float64
	ChannelIDs []string
	// ChannelConversion holds per-channel factors when gains differ; empty otherwise.
	ChannelConversion []float64
	NumChannels       int
	// ChunkFrames is the number of frames stored per chunk.
	ChunkFrames int
	Data        []int16
}

// NumFrames returns the number of frames in Data.
func (ts TimeSeries) NumFrames() int {
	if ts.NumChannels == 0 {
		return 0
	}
	return len(ts.Data) / ts.NumChannels
}

// Frame returns the samples of one frame.
func (ts TimeSeries) Frame(i int) []int16 {
	return ts.Data[i*ts.NumChannels : (i+1)*ts.NumChannels]
}

// Scaled returns one sample converted to Unit.
func (ts TimeSeries) Scaled(frame, channel int) float64 {
	factor := ts.Conversion
	if len(ts.ChannelConversion) > channel {
		factor *= ts.ChannelConversion[channel]
	}
	return float64(ts.Data[frame*ts.NumChannels+channel])*factor + ts.Offset
}

// TimeIntervals is a table of labelled intervals.
// The first two columns are always start_time and stop_time.
type TimeIntervals struct {
	Name        string
	Description string
	Columns     []IntervalColumn
}

// IntervalColumn is one column of an interval table.
// Values hold float64 or string cells.
type IntervalColumn struct {
	Name        string
	Description string
	Values      []any
}

// Column returns the named column.
func (t TimeIntervals) Column(name string) (IntervalColumn, bool) {
	for _, c := range t.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return IntervalColumn{}, false
}

// NumRows returns the number of rows.
func (t TimeIntervals) NumRows() int {
	if len(t.Columns) == 0 {
		return 0
	}
	return len(t.Columns[0].Values)
}

// NewDocument returns an empty document.
func NewDocument() *Document {
	return &Document{
		Devices:     make(map[string]Device),
		Acquisition: make(map[string]TimeSeries),
		Processing:  make(map[string]ProcessingModule),
		Intervals:   make(map[string]TimeIntervals),
	}
}

// Clone returns a deep copy of the document.
func (d *Document) Clone() *Document {
	out := NewDocument()
	out.Session = Session{
		Identifier:  d.Session.Identifier,
		Description: d.Session.Description,
		StartTime:   d.Session.StartTime,
		Extra:       d.Session.Extra.Clone(),
		Subject:     d.Session.Subject.Clone(),
	}
	for k, v := range d.Devices {
		out.Devices[k] = v
	}
	for k, v := range d.Acquisition {
		out.Acquisition[k] = v.Clone()
	}
	for k, v := range d.Processing {
		mod := ProcessingModule{Name: v.Name, Description: v.Description, TimeSeries: make(map[string]TimeSeries)}
		for name, ts := range v.TimeSeries {
			mod.TimeSeries[name] = ts.Clone()
		}
		out.Processing[k] = mod
	}
	for k, v := range d.Intervals {
		out.Intervals[k] = v.Clone()
	}
	return out
}

// Clone returns a deep copy of the time series.
func (ts TimeSeries) Clone() TimeSeries {
	out := ts
	out.ChannelIDs = append([]string(nil), ts.ChannelIDs...)
	out.ChannelConversion = append([]float64(nil), ts.ChannelConversion...)
	out.Data = append([]int16(nil), ts.Data...)
	return out
}

// Clone returns a deep copy of the interval table.
func (t TimeIntervals) Clone() TimeIntervals {
	out := t
	out.Columns = make([]IntervalColumn, len(t.Columns))
	for i, c := range t.Columns {
		out.Columns[i] = IntervalColumn{
			Name:        c.Name,
			Description: c.Description,
			Values:      append([]any(nil), c.Values...),
		}
	}
	return out
}
