package domain

import (
	"fmt"
	"sort"
)

// Validate checks the series is self-consistent.
func (ts TimeSeries) Validate() error {
	if ts.Name == "" {
		return fmt.Errorf("%w: time series without name", ErrInvalidInput)
	}
	if ts.NumChannels <= 0 {
		return fmt.Errorf("%w: time series %q: no channels", ErrInvalidInput, ts.Name)
	}
	if len(ts.Data)%ts.NumChannels != 0 {
		return fmt.Errorf("%w: time series %q: %d samples do not fill %d channels",
			ErrInvalidInput, ts.Name, len(ts.Data), ts.NumChannels)
	}
	if len(ts.ChannelIDs) != 0 && len(ts.ChannelIDs) != ts.NumChannels {
		return fmt.Errorf("%w: time series %q: %d channel ids for %d channels",
			ErrInvalidInput, ts.Name, len(ts.ChannelIDs), ts.NumChannels)
	}
	if len(ts.ChannelConversion) != 0 && len(ts.ChannelConversion) != ts.NumChannels {
		return fmt.Errorf("%w: time series %q: %d channel conversions for %d channels",
			ErrInvalidInput, ts.Name, len(ts.ChannelConversion), ts.NumChannels)
	}
	if ts.Rate <= 0 {
		return fmt.Errorf("%w: time series %q: rate must be positive", ErrInvalidInput, ts.Name)
	}
	if ts.ChunkFrames < 0 {
		return fmt.Errorf("%w: time series %q: negative chunk size", ErrInvalidInput, ts.Name)
	}
	return nil
}

// Validate checks the table has start/stop columns of equal length.
func (t TimeIntervals) Validate() error {
	if t.Name == "" {
		return fmt.Errorf("%w: interval table without name", ErrInvalidInput)
	}
	if len(t.Columns) < 2 || t.Columns[0].Name != "start_time" || t.Columns[1].Name != "stop_time" {
		return fmt.Errorf("%w: interval table %q must start with start_time and stop_time columns",
			ErrInvalidInput, t.Name)
	}
	rows := t.NumRows()
	seen := make(map[string]bool, len(t.Columns))
	for _, c := range t.Columns {
		if seen[c.Name] {
			return fmt.Errorf("%w: interval table %q: duplicate column %q", ErrInvalidInput, t.Name, c.Name)
		}
		seen[c.Name] = true
		if len(c.Values) != rows {
			return fmt.Errorf("%w: interval table %q: column %q has %d rows, want %d",
				ErrInvalidInput, t.Name, c.Name, len(c.Values), rows)
		}
	}
	return nil
}

// SetSession writes the header. A document that already has a different
// header is a conflict.
func (d *Document) SetSession(s Session) error {
	if !d.Session.IsZero() && !d.Session.SameContent(s) {
		return fmt.Errorf("%w: session %q differs from existing session %q",
			ErrTargetExistsConflict, s.Identifier, d.Session.Identifier)
	}
	d.Session = s
	return nil
}

// AddDevice records a device. Identical devices are accepted once.
func (d *Document) AddDevice(dev Device) error {
	if dev.Name == "" {
		return fmt.Errorf("%w: device without name", ErrInvalidInput)
	}
	if existing, ok := d.Devices[dev.Name]; ok {
		if existing != dev {
			return fmt.Errorf("%w: device %q", ErrTargetExistsConflict, dev.Name)
		}
		return nil
	}
	d.Devices[dev.Name] = dev
	return nil
}

// AddProcessingModule creates a processing module, then adds any series it carries.
func (d *Document) AddProcessingModule(m ProcessingModule) error {
	if m.Name == "" {
		return fmt.Errorf("%w: processing module without name", ErrInvalidInput)
	}
	if existing, ok := d.Processing[m.Name]; ok {
		if !existing.SameHeader(m) {
			return fmt.Errorf("%w: processing module %q", ErrTargetExistsConflict, m.Name)
		}
	} else {
		d.Processing[m.Name] = ProcessingModule{
			Name:        m.Name,
			Description: m.Description,
			TimeSeries:  make(map[string]TimeSeries),
		}
	}
	for _, name := range sortedSeries(m.TimeSeries) {
		if err := d.AddTimeSeries(m.Name, m.TimeSeries[name]); err != nil {
			return err
		}
	}
	return nil
}

// AddTimeSeries stores a series under acquisition (module "") or a processing module.
func (d *Document) AddTimeSeries(module string, ts TimeSeries) error {
	if err := ts.Validate(); err != nil {
		return err
	}

	series := d.Acquisition
	if module != "" {
		mod, ok := d.Processing[module]
		if !ok {
			return fmt.Errorf("%w: processing module %q", ErrNotFound, module)
		}
		series = mod.TimeSeries
	}

	if existing, ok := series[ts.Name]; ok {
		if !existing.SameContent(ts) {
			return fmt.Errorf("%w: time series %q", ErrTargetExistsConflict, ts.Name)
		}
		return nil
	}
	series[ts.Name] = ts.Clone()
	return nil
}

// AddTimeIntervals stores an interval table.
func (d *Document) AddTimeIntervals(t TimeIntervals) error {
	if err := t.Validate(); err != nil {
		return err
	}
	if existing, ok := d.Intervals[t.Name]; ok {
		if !existing.SameContent(t) {
			return fmt.Errorf("%w: interval table %q", ErrTargetExistsConflict, t.Name)
		}
		return nil
	}
	d.Intervals[t.Name] = t.Clone()
	return nil
}

func sortedSeries(m map[string]TimeSeries) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
