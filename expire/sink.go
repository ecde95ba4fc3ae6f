package expire

import (
	"fmt"
	"os"
)

// TileListFile appends expired tiles to a file, one "z/x/y" line per tile.
// When the file cannot be opened a warning is printed once and every
// subsequent write is dropped, so a broken tile list never stops the
// import that produced it.
type TileListFile struct {
	outfile  *os.File
	outcount uint32
}

func NewTileListFile(filename string) *TileListFile {
	outfile, err := os.OpenFile(filename, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open expired tiles file (%s).  Tile expiry list will not be written!\n", err)
		outfile = nil
	}
	return &TileListFile{outfile: outfile}
}

func (t *TileListFile) EmitTile(x, y, zoom uint32) {
	if t.outfile == nil {
		return
	}
	fmt.Fprintf(t.outfile, "%d/%d/%d\n", zoom, x, y)
	t.outcount++
	if t.outcount%1000 == 0 {
		fmt.Fprintf(os.Stderr, "\rWriting dirty tile list (%dK)", t.outcount/1000)
	}
}

func (t *TileListFile) Close() error {
	if t.outfile == nil {
		return nil
	}
	return t.outfile.Close()
}
