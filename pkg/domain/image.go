package domain

import (
	"fmt"
	"strings"
)

// ImageURLPrefix is the path under which uploaded images are served. Image nodes store
// ImageLocation values so that documents stay independent from the storage backend.
const ImageURLPrefix = "/presentation/"

// Image is an uploaded image blob owned by a patient's deck.
type Image struct {
	ID          string `json:"id"`
	PatientID   string `json:"patientId"`
	ContentType string `json:"contentType"`
	Data        []byte `json:"data"`
}

// ImageLocation is the reference stored as an image node value.
func ImageLocation(patientID, imageID string) string {
	return fmt.Sprintf("%s%s/image/%s", ImageURLPrefix, patientID, imageID)
}

// ParseImageLocation splits a location built by ImageLocation.
func ParseImageLocation(location string) (patientID, imageID string, ok bool) {
	rest, found := strings.CutPrefix(location, ImageURLPrefix)
	if !found {
		return "", "", false
	}
	patientID, imageID, found = strings.Cut(rest, "/image/")
	if !found || patientID == "" || imageID == "" || strings.Contains(imageID, "/") {
		return "", "", false
	}
	return patientID, imageID, true
}
