// Package replay decodes the header of osu! replay (.osr) files.
//
// Only the fields needed for the metadata record are read; the compressed
// frame data after the timestamp is ignored.
package replay

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"time"
	"unicode/utf8"
)

var (
	// ErrTruncated is returned when the header ends early
	ErrTruncated = errors.New("replay header truncated")
	// ErrInvalidString is returned for a string with an unknown marker or bad UTF-8
	ErrInvalidString = errors.New("invalid replay string")
	// ErrInvalidTimestamp is returned for ticks outside 0001-01-01..9999-12-31
	ErrInvalidTimestamp = errors.New("invalid replay timestamp")
)

const (
	stringAbsent  = 0x00
	stringPresent = 0x0b

	// ticksAtUnixEpoch is 1970-01-01 in .NET ticks (100ns since 0001-01-01)
	ticksAtUnixEpoch = 621355968000000000
	// maxTicks is 9999-12-31T23:59:59.9999999
	maxTicks       = 3155378975999999999
	ticksPerSecond = 10000000
)

// Replay holds the decoded header fields
type Replay struct {
	Mode         uint8
	Version      int32
	BeatmapHash  string
	PlayerName   string
	ReplayHash   string
	Count300     uint16
	Count100     uint16
	Count50      uint16
	CountGeki    uint16
	CountKatu    uint16
	CountMiss    uint16
	Score        int32
	MaxCombo     uint16
	PerfectCombo bool
	Mods         int32
	LifeBar      string
	Timestamp    time.Time
}

// Owner is the identity checked against the allow-list
func (r *Replay) Owner() string {
	return r.PlayerName
}

// GroupKey is the object store prefix the replay is filed under
func (r *Replay) GroupKey() string {
	return r.BeatmapHash
}

// DisplayName is the object name: "<timestamp> - <owner>.osr"
func (r *Replay) DisplayName() string {
	return r.Timestamp.UTC().Format(time.RFC3339) + " - " + r.PlayerName + ".osr"
}

// ObjectKey is GroupKey and DisplayName joined by a slash
func (r *Replay) ObjectKey() string {
	return r.GroupKey() + "/" + r.DisplayName()
}

// Parser decodes replay headers
type Parser struct{}

// NewParser creates a parser
func NewParser() *Parser {
	return &Parser{}
}

// Parse decodes the header at the start of data
func (p *Parser) Parse(data []byte) (*Replay, error) {
	d := &decoder{r: bytes.NewReader(data)}
	r := &Replay{}

	r.Mode = d.byte()
	r.Version = d.int32()
	r.BeatmapHash = d.string()
	r.PlayerName = d.string()
	r.ReplayHash = d.string()
	r.Count300 = d.uint16()
	r.Count100 = d.uint16()
	r.Count50 = d.uint16()
	r.CountGeki = d.uint16()
	r.CountKatu = d.uint16()
	r.CountMiss = d.uint16()
	r.Score = d.int32()
	r.MaxCombo = d.uint16()
	r.PerfectCombo = d.byte() != 0
	r.Mods = d.int32()
	r.LifeBar = d.string()
	ticks := d.int64()

	if d.err != nil {
		return nil, d.err
	}
	if ticks < 0 || ticks > maxTicks {
		return nil, fmt.Errorf("%w: %d ticks", ErrInvalidTimestamp, ticks)
	}
	r.Timestamp = ticksToTime(ticks)
	return r, nil
}

// ticksToTime converts .NET ticks in 0..maxTicks to UTC
func ticksToTime(ticks int64) time.Time {
	rel := ticks - ticksAtUnixEpoch
	sec, rem := rel/ticksPerSecond, rel%ticksPerSecond
	return time.Unix(sec, rem*100).UTC()
}

// timeToTicks is the inverse of ticksToTime
func timeToTicks(t time.Time) int64 {
	return t.Unix()*ticksPerSecond + int64(t.Nanosecond()/100) + ticksAtUnixEpoch
}

// decoder reads little-endian fields and remembers the first error
type decoder struct {
	r   *bytes.Reader
	err error
}

func (d *decoder) read(v interface{}) {
	if d.err != nil {
		return
	}
	if err := binary.Read(d.r, binary.LittleEndian, v); err != nil {
		d.fail(err)
	}
}

func (d *decoder) fail(err error) {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		err = ErrTruncated
	}
	d.err = err
}

func (d *decoder) byte() uint8 {
	var v uint8
	d.read(&v)
	return v
}

func (d *decoder) uint16() uint16 {
	var v uint16
	d.read(&v)
	return v
}

func (d *decoder) int32() int32 {
	var v int32
	d.read(&v)
	return v
}

func (d *decoder) int64() int64 {
	var v int64
	d.read(&v)
	return v
}

// string reads a marker byte, then for 0x0b a ULEB128 length and the bytes
func (d *decoder) string() string {
	marker := d.byte()
	if d.err != nil {
		return ""
	}
	switch marker {
	case stringAbsent:
		return ""
	case stringPresent:
	default:
		d.err = fmt.Errorf("%w: marker 0x%02x", ErrInvalidString, marker)
		return ""
	}

	length, err := binary.ReadUvarint(d.r)
	if err != nil {
		d.fail(err)
		return ""
	}
	if length > uint64(d.r.Len()) {
		d.err = ErrTruncated
		return ""
	}

	buf := make([]byte, length)
	if _, err := io.ReadFull(d.r, buf); err != nil {
		d.fail(err)
		return ""
	}
	if !utf8.Valid(buf) {
		d.err = fmt.Errorf("%w: not UTF-8", ErrInvalidString)
		return ""
	}
	return string(buf)
}
