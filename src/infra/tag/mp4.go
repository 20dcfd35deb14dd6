package tag

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	gomp4 "github.com/abema/go-mp4"
	"tomekeeper/src/book"
)

// readMP4Fields supplements a FileTags record with the ilst atoms the
// generic reader cannot see: the dedicated narrator atom, repeated genre
// atoms and the freeform series slots.
func readMP4Fields(filePath string, ft *book.FileTags) {
	f, err := os.Open(filePath)
	if err != nil {
		return
	}
	defer f.Close()

	var genres []string

	_, _ = gomp4.ReadBoxStructure(f, func(h *gomp4.ReadHandle) (interface{}, error) {
		switch h.BoxInfo.Type {
		case gomp4.BoxTypeMoov(), gomp4.BoxTypeUdta(), gomp4.BoxTypeMeta(), gomp4.BoxTypeIlst():
			return h.Expand()
		}
		if len(h.Path) < 2 || h.Path[len(h.Path)-2] != gomp4.BoxTypeIlst() {
			return nil, nil
		}

		var buf bytes.Buffer
		if _, err := h.ReadData(&buf); err != nil {
			return nil, nil
		}
		body := buf.Bytes()

		switch {
		case atomTypeEquals(h.BoxInfo.Type, atomNarrator):
			if _, v, ok := dataAtomValue(body); ok && !book.Has(ft.Narrator) {
				ft.Narrator = book.Str(string(v))
			}
		case atomTypeEquals(h.BoxInfo.Type, atomGenre):
			if _, v, ok := dataAtomValue(body); ok {
				genres = append(genres, string(v))
			}
		case atomTypeEquals(h.BoxInfo.Type, atomDesc):
			if _, v, ok := dataAtomValue(body); ok && !book.Has(ft.Description) {
				ft.Description = book.Str(string(v))
			}
		case atomTypeEquals(h.BoxInfo.Type, atomFreeform):
			_, name, value, ok := freeformParts(body)
			if !ok {
				return nil, nil
			}
			switch name {
			case freeformSeries:
				if !book.Has(ft.Series) {
					ft.Series = book.Str(value)
				}
			case freeformPart:
				if !book.Has(ft.Sequence) {
					ft.Sequence = book.Str(value)
				}
			case freeformISBN:
				if !book.Has(ft.ISBN) {
					ft.ISBN = book.Str(value)
				}
			case freeformPublisher:
				if !book.Has(ft.Publisher) {
					ft.Publisher = book.Str(value)
				}
			}
		}
		return nil, nil
	})

	if len(genres) > 0 {
		ft.Genres = dedupeStrings(genres)
	}
}

// writeMP4 applies a change map to an M4B/M4A file by rebuilding the
// moov>udta>meta>ilst chain. Atoms for untouched slots are carried over
// byte for byte.
func (w *Writer) writeMP4(ctx context.Context, filePath string, changes book.ChangeMap) error {
	input, err := os.ReadFile(filePath)
	if err != nil {
		return fmt.Errorf("failed to read file: %w", err)
	}

	output, err := w.rewriteMP4Bytes(ctx, input, changes)
	if err != nil {
		return err
	}

	tmpPath := filePath + ".tmp"
	if err := os.WriteFile(tmpPath, output, 0644); err != nil {
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := os.Rename(tmpPath, filePath); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to replace file: %w", err)
	}
	return nil
}

func (w *Writer) rewriteMP4Bytes(ctx context.Context, input []byte, changes book.ChangeMap) ([]byte, error) {
	r := bytes.NewReader(input)
	var output bytes.Buffer
	moovWritten := false

	_, err := gomp4.ReadBoxStructure(r, func(h *gomp4.ReadHandle) (interface{}, error) {
		if h.BoxInfo.Type == boxTypeMoov {
			moovBytes, err := w.rebuildMoov(ctx, r, h, changes)
			if err != nil {
				return nil, err
			}
			output.Write(moovBytes)
			moovWritten = true
			return nil, nil
		}
		output.Write(input[h.BoxInfo.Offset : h.BoxInfo.Offset+h.BoxInfo.Size])
		return nil, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk mp4 boxes: %w", err)
	}
	if !moovWritten {
		return nil, fmt.Errorf("moov box not found")
	}
	return output.Bytes(), nil
}

func (w *Writer) rebuildMoov(ctx context.Context, r *bytes.Reader, h *gomp4.ReadHandle, changes book.ChangeMap) ([]byte, error) {
	start := int64(h.BoxInfo.Offset + h.BoxInfo.HeaderSize)
	length := int64(h.BoxInfo.Size - h.BoxInfo.HeaderSize)
	if _, err := r.Seek(start, io.SeekStart); err != nil {
		return nil, err
	}
	content := make([]byte, length)
	if _, err := io.ReadFull(r, content); err != nil {
		return nil, err
	}

	var newContent bytes.Buffer
	foundUdta := false
	walkBoxes(content, func(boxType string, box []byte) bool {
		if boxType == "udta" {
			newContent.Write(w.rebuildUdta(ctx, box, changes))
			foundUdta = true
		} else {
			newContent.Write(box)
		}
		return true
	})
	if !foundUdta {
		newContent.Write(buildBox(strType("udta"), w.buildMeta(ctx, nil, changes)))
	}

	return buildBox(strType("moov"), newContent.Bytes()), nil
}

func (w *Writer) rebuildUdta(ctx context.Context, udtaBox []byte, changes book.ChangeMap) []byte {
	content := udtaBox[8:]
	var newContent bytes.Buffer
	foundMeta := false
	walkBoxes(content, func(boxType string, box []byte) bool {
		if boxType == "meta" {
			newContent.Write(w.rebuildMeta(ctx, box, changes))
			foundMeta = true
		} else {
			newContent.Write(box)
		}
		return true
	})
	if !foundMeta {
		newContent.Write(w.buildMeta(ctx, nil, changes))
	}
	return buildBox(strType("udta"), newContent.Bytes())
}

func (w *Writer) rebuildMeta(ctx context.Context, metaBox []byte, changes book.ChangeMap) []byte {
	if len(metaBox) < 12 {
		return metaBox
	}
	// meta is a full box: 4 bytes of version/flags follow the header.
	versionFlags := metaBox[8:12]
	content := metaBox[12:]

	var newContent bytes.Buffer
	newContent.Write(versionFlags)
	foundIlst := false
	walkBoxes(content, func(boxType string, box []byte) bool {
		if boxType == "ilst" {
			newContent.Write(w.rebuildIlst(ctx, box, changes))
			foundIlst = true
		} else {
			newContent.Write(box)
		}
		return true
	})
	if !foundIlst {
		newContent.Write(w.rebuildIlst(ctx, nil, changes))
	}
	return buildBox(strType("meta"), newContent.Bytes())
}

// buildMeta builds a fresh meta box with an iTunes handler and an ilst
// holding the changed slots, for files that had no metadata at all.
func (w *Writer) buildMeta(ctx context.Context, _ []byte, changes book.ChangeMap) []byte {
	var content bytes.Buffer
	content.Write([]byte{0, 0, 0, 0}) // version/flags

	// hdlr: version/flags, predefined, handler "mdir", reserved "appl", name
	var hdlr bytes.Buffer
	hdlr.Write([]byte{0, 0, 0, 0})
	hdlr.Write([]byte{0, 0, 0, 0})
	hdlr.WriteString("mdir")
	hdlr.WriteString("appl")
	hdlr.Write(make([]byte, 9))
	content.Write(buildBox(strType("hdlr"), hdlr.Bytes()))

	content.Write(w.rebuildIlst(ctx, nil, changes))
	return buildBox(strType("meta"), content.Bytes())
}

// rebuildIlst rebuilds the item list: atoms belonging to changed slots are
// dropped and re-emitted from the change map, everything else is kept.
func (w *Writer) rebuildIlst(ctx context.Context, ilstBox []byte, changes book.ChangeMap) []byte {
	var content bytes.Buffer

	if len(ilstBox) > 8 {
		walkBoxes(ilstBox[8:], func(boxType string, box []byte) bool {
			if !w.atomReplaced(boxType, box, changes) {
				content.Write(box)
			}
			return true
		})
	}

	for slot, change := range changes {
		switch slot {
		case book.SlotTitle:
			content.Write(buildTextAtom(atomTitle, change.New))
		case book.SlotArtist:
			content.Write(buildTextAtom(atomArtist, change.New))
			content.Write(buildTextAtom(atomAlbArt, change.New))
		case book.SlotAlbum:
			content.Write(buildTextAtom(atomAlbum, change.New))
		case book.SlotNarrator:
			// Dedicated narrator atom plus composer for player compatibility.
			content.Write(buildTextAtom(atomNarrator, change.New))
			content.Write(buildTextAtom(atomComposer, change.New))
		case book.SlotGenres:
			for _, genre := range change.NewValues {
				content.Write(buildTextAtom(atomGenre, genre))
			}
		case book.SlotSeries:
			content.Write(buildFreeformAtom(freeformNamespace, freeformSeries, change.New))
		case book.SlotSequence:
			content.Write(buildFreeformAtom(freeformNamespace, freeformPart, change.New))
		case book.SlotYear:
			content.Write(buildTextAtom(atomYear, change.New))
		case book.SlotDescription:
			content.Write(buildTextAtom(atomDesc, change.New))
		case book.SlotPublisher:
			content.Write(buildFreeformAtom(freeformNamespace, freeformPublisher, change.New))
		case book.SlotISBN:
			content.Write(buildFreeformAtom(freeformNamespace, freeformISBN, change.New))
		case book.SlotCover:
			if change.New == "" {
				continue
			}
			imgData, mimeType, err := w.loadCover(ctx, change.New)
			if err != nil {
				slog.Warn("Failed to load cover for MP4", "error", err)
				continue
			}
			dataType := dataTypeJPEG
			if mimeType == "image/png" {
				dataType = dataTypePNG
			}
			content.Write(buildDataAtom(atomCover, dataType, imgData))
		default:
			slog.Warn("Unknown tag slot for MP4", "slot", slot)
		}
	}

	// Mark the file as an audiobook.
	content.Write(buildDataAtom(atomStik, dataTypeInteger, []byte{2}))

	return buildBox(strType("ilst"), content.Bytes())
}

// atomReplaced reports whether an existing ilst atom is superseded by the
// change map and must not be carried over.
func (w *Writer) atomReplaced(boxType string, box []byte, changes book.ChangeMap) bool {
	has := func(slot string) bool {
		_, ok := changes[slot]
		return ok
	}
	var t [4]byte
	copy(t[:], boxType)

	switch t {
	case atomTitle:
		return has(book.SlotTitle)
	case atomArtist, atomAlbArt:
		return has(book.SlotArtist)
	case atomAlbum:
		return has(book.SlotAlbum)
	case atomNarrator, atomComposer:
		return has(book.SlotNarrator)
	case atomGenre, strType("gnre"):
		return has(book.SlotGenres)
	case atomYear:
		return has(book.SlotYear)
	case atomDesc:
		return has(book.SlotDescription)
	case atomCover:
		return has(book.SlotCover)
	case atomStik:
		return true // always rewritten
	case atomFreeform:
		if len(box) <= 8 {
			return false
		}
		_, name, _, ok := freeformParts(box[8:])
		if !ok {
			return false
		}
		switch name {
		case freeformSeries:
			return has(book.SlotSeries)
		case freeformPart:
			return has(book.SlotSequence)
		case freeformISBN:
			return has(book.SlotISBN)
		case freeformPublisher:
			return has(book.SlotPublisher)
		}
	}
	return false
}
