package tag

import (
	"bytes"
	"encoding/binary"

	gomp4 "github.com/abema/go-mp4"
)

// iTunes data atom payload types.
const (
	dataTypeUTF8    = 1
	dataTypeJPEG    = 13
	dataTypePNG     = 14
	dataTypeGenre   = 18
	dataTypeInteger = 21
)

// iTunes atom type names. The © sign is 0xA9 in MacRoman.
var (
	atomTitle    = [4]byte{0xA9, 'n', 'a', 'm'} // ©nam
	atomArtist   = [4]byte{0xA9, 'A', 'R', 'T'} // ©ART
	atomAlbum    = [4]byte{0xA9, 'a', 'l', 'b'} // ©alb
	atomAlbArt   = [4]byte{'a', 'A', 'R', 'T'}  // aART
	atomComposer = [4]byte{0xA9, 'w', 'r', 't'} // ©wrt - narrator convention
	atomNarrator = [4]byte{0xA9, 'n', 'r', 't'} // ©nrt - dedicated narrator
	atomGenre    = [4]byte{0xA9, 'g', 'e', 'n'} // ©gen
	atomComment  = [4]byte{0xA9, 'c', 'm', 't'} // ©cmt
	atomYear     = [4]byte{0xA9, 'd', 'a', 'y'} // ©day
	atomDesc     = [4]byte{'d', 'e', 's', 'c'}  // desc
	atomCover    = [4]byte{'c', 'o', 'v', 'r'}  // covr
	atomStik     = [4]byte{'s', 't', 'i', 'k'}  // stik - 2 = audiobook
	atomFreeform = [4]byte{'-', '-', '-', '-'}  // ---- with mean/name children
)

// Freeform atom names for the audiobook slots.
const (
	freeformNamespace = "com.apple.iTunes"
	freeformSeries    = "SERIES"
	freeformPart      = "SERIES-PART"
	freeformISBN      = "ISBN"
	freeformPublisher = "PUBLISHER"
)

var boxTypeMoov = gomp4.BoxTypeMoov()

// buildBox frames content with a 4-byte size and type header.
func buildBox(boxType [4]byte, content []byte) []byte {
	buf := make([]byte, 8+len(content))
	binary.BigEndian.PutUint32(buf[0:4], uint32(8+len(content)))
	copy(buf[4:8], boxType[:])
	copy(buf[8:], content)
	return buf
}

func strType(s string) [4]byte {
	var t [4]byte
	copy(t[:], s)
	return t
}

// buildDataAtom builds an iTunes atom wrapping one data box:
// [version 1B][type 3B][locale 4B][payload].
func buildDataAtom(atomType [4]byte, dataType int, value []byte) []byte {
	var dataContent bytes.Buffer
	dataContent.WriteByte(0)
	dataContent.WriteByte(byte((dataType >> 16) & 0xFF))
	dataContent.WriteByte(byte((dataType >> 8) & 0xFF))
	dataContent.WriteByte(byte(dataType & 0xFF))
	dataContent.Write([]byte{0, 0, 0, 0})
	dataContent.Write(value)

	return buildBox(atomType, buildBox(strType("data"), dataContent.Bytes()))
}

// buildTextAtom builds a UTF-8 text atom.
func buildTextAtom(atomType [4]byte, value string) []byte {
	return buildDataAtom(atomType, dataTypeUTF8, []byte(value))
}

// buildFreeformAtom builds a ---- atom with mean/name/data children, used
// for named custom slots like ----:com.apple.iTunes:SERIES.
func buildFreeformAtom(namespace, name, value string) []byte {
	var content bytes.Buffer

	meanContent := make([]byte, 4+len(namespace))
	copy(meanContent[4:], namespace)
	content.Write(buildBox(strType("mean"), meanContent))

	nameContent := make([]byte, 4+len(name))
	copy(nameContent[4:], name)
	content.Write(buildBox(strType("name"), nameContent))

	var dataContent bytes.Buffer
	dataContent.WriteByte(0)
	dataContent.Write([]byte{0, 0, dataTypeUTF8})
	dataContent.Write([]byte{0, 0, 0, 0})
	dataContent.WriteString(value)
	content.Write(buildBox(strType("data"), dataContent.Bytes()))

	return buildBox(atomFreeform, content.Bytes())
}

// walkBoxes iterates the boxes laid out back to back in content and calls
// fn with each box type and full box bytes (header included). Malformed
// trailing bytes stop the walk.
func walkBoxes(content []byte, fn func(boxType string, box []byte) bool) {
	offset := 0
	for offset+8 <= len(content) {
		size := int(binary.BigEndian.Uint32(content[offset:]))
		if size < 8 || offset+size > len(content) {
			return
		}
		boxType := string(content[offset+4 : offset+8])
		if !fn(boxType, content[offset:offset+size]) {
			return
		}
		offset += size
	}
}

// dataAtomValue extracts the payload of the first data box inside an atom
// body (box header already stripped).
func dataAtomValue(atomBody []byte) (dataType int, value []byte, ok bool) {
	walkBoxes(atomBody, func(boxType string, box []byte) bool {
		if boxType != "data" || len(box) < 16 {
			return true
		}
		dataType = int(box[9])<<16 | int(box[10])<<8 | int(box[11])
		value = box[16:]
		ok = true
		return false
	})
	return dataType, value, ok
}

// freeformParts extracts namespace, name and value from a ---- atom body.
func freeformParts(atomBody []byte) (namespace, name, value string, ok bool) {
	walkBoxes(atomBody, func(boxType string, box []byte) bool {
		switch boxType {
		case "mean":
			if len(box) > 12 {
				namespace = string(box[12:])
			}
		case "name":
			if len(box) > 12 {
				name = string(box[12:])
			}
		case "data":
			if len(box) > 16 {
				value = string(box[16:])
				ok = true
			}
		}
		return true
	})
	return namespace, name, value, ok && name != ""
}

func atomTypeEquals(boxType gomp4.BoxType, atomType [4]byte) bool {
	return boxType[0] == atomType[0] &&
		boxType[1] == atomType[1] &&
		boxType[2] == atomType[2] &&
		boxType[3] == atomType[3]
}
