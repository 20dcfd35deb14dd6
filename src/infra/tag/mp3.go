package tag

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/bogem/id3v2/v2"
	"tomekeeper/src/book"
)

// writeMP3 applies a change map to an MP3 file via ID3v2.4 frames.
func (w *Writer) writeMP3(ctx context.Context, filePath string, changes book.ChangeMap) error {
	tag, err := id3v2.Open(filePath, id3v2.Options{Parse: true})
	if err != nil {
		return fmt.Errorf("failed to open MP3 file for tagging: %w", err)
	}
	defer tag.Close()
	tag.SetVersion(4)

	for slot, change := range changes {
		switch slot {
		case book.SlotTitle:
			tag.SetTitle(change.New)
		case book.SlotArtist:
			tag.SetArtist(change.New)
			setTextFrame(tag, tag.CommonID("Band/Orchestra/Accompaniment"), change.New)
		case book.SlotAlbum:
			tag.SetAlbum(change.New)
		case book.SlotNarrator:
			// Composer is the conventional narrator slot; a user frame keeps
			// the value recoverable by name.
			setTextFrame(tag, tag.CommonID("Composer"), change.New)
			setUserFrame(tag, "NARRATOR", change.New)
		case book.SlotGenres:
			// ID3v2.4 multi-value frame: NUL-separated discrete entries.
			setTextFrame(tag, tag.CommonID("Content type"), strings.Join(change.NewValues, "\x00"))
		case book.SlotSeries:
			setUserFrame(tag, "SERIES", change.New)
		case book.SlotSequence:
			setUserFrame(tag, "SERIES-PART", change.New)
		case book.SlotYear:
			tag.SetYear(change.New)
		case book.SlotDescription:
			setCommentFrame(tag, change.New)
		case book.SlotPublisher:
			setTextFrame(tag, tag.CommonID("Publisher"), change.New)
		case book.SlotISBN:
			setUserFrame(tag, "ISBN", change.New)
		case book.SlotCover:
			if change.New == "" {
				continue
			}
			imgData, mimeType, err := w.loadCover(ctx, change.New)
			if err != nil {
				slog.Warn("Failed to load cover for MP3", "filePath", filePath, "error", err)
				continue
			}
			tag.DeleteFrames(tag.CommonID("Attached picture"))
			tag.AddAttachedPicture(id3v2.PictureFrame{
				Encoding:    id3v2.EncodingUTF8,
				MimeType:    mimeType,
				PictureType: id3v2.PTFrontCover,
				Description: "",
				Picture:     imgData,
			})
		default:
			slog.Warn("Unknown tag slot for MP3", "slot", slot, "filePath", filePath)
		}
	}

	if err := tag.Save(); err != nil {
		return fmt.Errorf("failed to save MP3 tags: %w", err)
	}
	return nil
}

// setTextFrame replaces a text frame instead of appending a duplicate.
func setTextFrame(tag *id3v2.Tag, id, value string) {
	tag.DeleteFrames(id)
	if value != "" {
		tag.AddTextFrame(id, id3v2.EncodingUTF8, value)
	}
}

// setUserFrame replaces the TXXX frame with the given description.
func setUserFrame(tag *id3v2.Tag, description, value string) {
	id := tag.CommonID("User defined text information frame")
	frames := tag.GetFrames(id)
	tag.DeleteFrames(id)
	for _, f := range frames {
		udf, ok := f.(id3v2.UserDefinedTextFrame)
		if ok && udf.Description != description {
			tag.AddFrame(id, udf)
		}
	}
	if value != "" {
		tag.AddUserDefinedTextFrame(id3v2.UserDefinedTextFrame{
			Encoding:    id3v2.EncodingUTF8,
			Description: description,
			Value:       value,
		})
	}
}

// setCommentFrame replaces the english comment frame.
func setCommentFrame(tag *id3v2.Tag, text string) {
	id := tag.CommonID("Comments")
	tag.DeleteFrames(id)
	if text != "" {
		tag.AddCommentFrame(id3v2.CommentFrame{
			Encoding:    id3v2.EncodingUTF8,
			Language:    "eng",
			Description: "",
			Text:        text,
		})
	}
}
