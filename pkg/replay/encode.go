package replay

import (
	"bytes"
	"encoding/binary"
)

// Encode writes the header fields of r in .osr layout, followed by an empty
// frame block. It is the inverse of Parse and is used to build fixtures.
func Encode(r *Replay) []byte {
	var buf bytes.Buffer
	w := func(v interface{}) { binary.Write(&buf, binary.LittleEndian, v) }

	w(r.Mode)
	w(r.Version)
	writeString(&buf, r.BeatmapHash)
	writeString(&buf, r.PlayerName)
	writeString(&buf, r.ReplayHash)
	w(r.Count300)
	w(r.Count100)
	w(r.Count50)
	w(r.CountGeki)
	w(r.CountKatu)
	w(r.CountMiss)
	w(r.Score)
	w(r.MaxCombo)
	if r.PerfectCombo {
		w(uint8(1))
	} else {
		w(uint8(0))
	}
	w(r.Mods)
	writeString(&buf, r.LifeBar)
	w(timeToTicks(r.Timestamp))
	// compressed frame length and online score id
	w(int32(0))
	w(int64(0))

	return buf.Bytes()
}

func writeString(buf *bytes.Buffer, s string) {
	if s == "" {
		buf.WriteByte(stringAbsent)
		return
	}
	buf.WriteByte(stringPresent)
	var n [binary.MaxVarintLen64]byte
	buf.Write(n[:binary.PutUvarint(n[:], uint64(len(s)))])
	buf.WriteString(s)
}
