package tag

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/go-flac/flacpicture"
	"github.com/go-flac/flacvorbis"
	goflac "github.com/go-flac/go-flac"
	"tomekeeper/src/book"
)

// Vorbis comment field names for the audiobook slots.
const (
	vorbisNarrator = "NARRATOR"
	vorbisSeries   = "SERIES"
	vorbisPart     = "SERIES-PART"
	vorbisDesc     = "DESCRIPTION"
	vorbisISBN     = "ISBN"
	vorbisPub      = "PUBLISHER"
)

// readFLACFields supplements a FileTags record with the vorbis fields the
// generic reader cannot see, most importantly repeated GENRE entries.
func readFLACFields(filePath string, ft *book.FileTags) {
	f, err := goflac.ParseFile(filePath)
	if err != nil {
		return
	}
	vc := findVorbisComment(f)
	if vc == nil {
		return
	}

	if genres, err := vc.Get(flacvorbis.FIELD_GENRE); err == nil && len(genres) > 0 {
		ft.Genres = dedupeStrings(genres)
	}
	if !book.Has(ft.Narrator) {
		ft.Narrator = firstVorbis(vc, vorbisNarrator)
	}
	if !book.Has(ft.Series) {
		ft.Series = firstVorbis(vc, vorbisSeries)
	}
	if !book.Has(ft.Sequence) {
		ft.Sequence = firstVorbis(vc, vorbisPart)
	}
	if !book.Has(ft.Description) {
		ft.Description = firstVorbis(vc, vorbisDesc)
	}
	if !book.Has(ft.ISBN) {
		ft.ISBN = firstVorbis(vc, vorbisISBN)
	}
	if !book.Has(ft.Publisher) {
		ft.Publisher = firstVorbis(vc, vorbisPub)
	}
}

func findVorbisComment(f *goflac.File) *flacvorbis.MetaDataBlockVorbisComment {
	for _, meta := range f.Meta {
		if meta.Type == goflac.VorbisComment {
			vc, err := flacvorbis.ParseFromMetaDataBlock(*meta)
			if err != nil {
				return nil
			}
			return vc
		}
	}
	return nil
}

func firstVorbis(vc *flacvorbis.MetaDataBlockVorbisComment, field string) *string {
	values, err := vc.Get(field)
	if err != nil || len(values) == 0 {
		return nil
	}
	return book.Str(values[0])
}

func dedupeStrings(in []string) []string {
	out := make([]string, 0, len(in))
	seen := make(map[string]bool, len(in))
	for _, s := range in {
		s = strings.TrimSpace(s)
		if s == "" || seen[strings.ToLower(s)] {
			continue
		}
		seen[strings.ToLower(s)] = true
		out = append(out, s)
	}
	return out
}

// writeFLAC applies a change map to a FLAC file via its vorbis comment
// block. Only the slots present in changes are touched; every other
// comment survives untouched.
func (w *Writer) writeFLAC(ctx context.Context, filePath string, changes book.ChangeMap) error {
	f, err := goflac.ParseFile(filePath)
	if err != nil {
		return fmt.Errorf("failed to parse FLAC file: %w", err)
	}

	var vc *flacvorbis.MetaDataBlockVorbisComment
	commentIndex := -1
	for idx, meta := range f.Meta {
		if meta.Type == goflac.VorbisComment {
			vc, err = flacvorbis.ParseFromMetaDataBlock(*meta)
			if err != nil {
				return fmt.Errorf("failed to parse Vorbis comment: %w", err)
			}
			commentIndex = idx
			break
		}
	}
	if vc == nil {
		vc = flacvorbis.New()
	}

	for slot, change := range changes {
		switch slot {
		case book.SlotTitle:
			setVorbisField(vc, flacvorbis.FIELD_TITLE, change.New)
		case book.SlotArtist:
			setVorbisField(vc, flacvorbis.FIELD_ARTIST, change.New)
			setVorbisField(vc, "ALBUMARTIST", change.New)
		case book.SlotAlbum:
			setVorbisField(vc, flacvorbis.FIELD_ALBUM, change.New)
		case book.SlotNarrator:
			setVorbisField(vc, vorbisNarrator, change.New)
		case book.SlotGenres:
			setVorbisField(vc, flacvorbis.FIELD_GENRE, change.NewValues...)
		case book.SlotSeries:
			setVorbisField(vc, vorbisSeries, change.New)
		case book.SlotSequence:
			setVorbisField(vc, vorbisPart, change.New)
		case book.SlotYear:
			setVorbisField(vc, flacvorbis.FIELD_DATE, change.New)
		case book.SlotDescription:
			setVorbisField(vc, vorbisDesc, change.New)
		case book.SlotPublisher:
			setVorbisField(vc, vorbisPub, change.New)
		case book.SlotISBN:
			setVorbisField(vc, vorbisISBN, change.New)
		case book.SlotCover:
			// handled after the comment block below
		default:
			slog.Warn("Unknown tag slot for FLAC", "slot", slot, "filePath", filePath)
		}
	}

	commentMeta := vc.Marshal()
	if commentIndex >= 0 {
		f.Meta[commentIndex] = &commentMeta
	} else {
		f.Meta = append(f.Meta, &commentMeta)
	}

	if change, ok := changes[book.SlotCover]; ok && change.New != "" {
		imgData, mimeType, err := w.loadCover(ctx, change.New)
		if err != nil {
			slog.Warn("Failed to load cover for FLAC", "filePath", filePath, "error", err)
		} else {
			// Replace any existing picture blocks.
			kept := f.Meta[:0]
			for _, meta := range f.Meta {
				if meta.Type != goflac.Picture {
					kept = append(kept, meta)
				}
			}
			f.Meta = kept
			pic, err := flacpicture.NewFromImageData(flacpicture.PictureTypeFrontCover, "Cover", imgData, mimeType)
			if err != nil {
				slog.Warn("Failed to build FLAC picture block", "filePath", filePath, "error", err)
			} else {
				marshaled := pic.Marshal()
				f.Meta = append(f.Meta, &marshaled)
			}
		}
	}

	if err := f.Save(filePath); err != nil {
		return fmt.Errorf("failed to save FLAC file: %w", err)
	}
	return nil
}

// setVorbisField replaces every existing value of field with the given
// values. Empty values clear the field.
func setVorbisField(vc *flacvorbis.MetaDataBlockVorbisComment, field string, values ...string) {
	prefix := strings.ToUpper(field) + "="
	kept := vc.Comments[:0]
	for _, c := range vc.Comments {
		if !strings.HasPrefix(strings.ToUpper(c), prefix) {
			kept = append(kept, c)
		}
	}
	vc.Comments = kept
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			vc.Add(field, v)
		}
	}
}
