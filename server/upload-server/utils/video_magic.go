package utils

import (
	"bytes"
	"io"
)

// SniffLength is the number of leading bytes IsVideoFile needs
const SniffLength = 12

var ftypBox = []byte("ftyp")

// VideoBrands maps ISO base media brands found after the ftyp box to the container they identify
var VideoBrands = map[string]string{
	"isom": "mp4",
	"iso2": "mp4",
	"iso3": "mp4",
	"iso4": "mp4",
	"iso5": "mp4",
	"iso6": "mp4",
	"mp41": "mp4",
	"mp42": "mp4",
	"mp71": "mp4",
	"MSNV": "mp4",
	"avc1": "mp4",
	"dash": "mp4",
	"mp4v": "mp4",
	"M4V ": "mp4",
	"qt  ": "mov",
}

// brandFamilies covers brands that are numbered per revision, such as 3gp4 or 3g2a
var brandFamilies = map[string]string{
	"3gp": "mp4",
	"3g2": "mp4",
}

// IsVideoFile checks if data starts like an mp4 or mov file by examining the
// ftyp box and its major brand
func IsVideoFile(data []byte) (bool, string) {
	if len(data) < SniffLength {
		return false, ""
	}

	// The box size in the first four bytes varies between encoders; only the type matters
	if !bytes.Equal(data[4:8], ftypBox) {
		return false, ""
	}

	brand := string(data[8:12])
	if format, ok := VideoBrands[brand]; ok {
		return true, format
	}
	format, ok := brandFamilies[brand[:3]]
	return ok, format
}

// SniffVideo reads the leading bytes of r and rewinds it
func SniffVideo(r io.ReadSeeker) (bool, string, error) {
	header := make([]byte, SniffLength)
	n, err := io.ReadFull(r, header)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return false, "", err
	}
	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return false, "", err
	}

	ok, format := IsVideoFile(header[:n])
	return ok, format, nil
}
