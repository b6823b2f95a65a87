package model

import (
	"fmt"
	"regexp"
	"time"

	"github.com/google/uuid"
)

type IDType string

const (
	IDTypeJob  IDType = "job"
	IDTypePlan IDType = "plan"
	IDTypeRun  IDType = "run"
)

var validIDTypes = map[IDType]bool{
	IDTypeJob:  true,
	IDTypePlan: true,
	IDTypeRun:  true,
}

var idRegex = regexp.MustCompile(`^(job|plan|run)-[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}$`)

// GenerateID returns a fresh "<type>-<uuid4>" identifier.
func GenerateID(idType IDType) (string, error) {
	if !validIDTypes[idType] {
		return "", fmt.Errorf("invalid ID type: %s", idType)
	}
	return fmt.Sprintf("%s-%s", idType, uuid.NewString()), nil
}

func ValidateID(id string) bool {
	return idRegex.MatchString(id)
}

func ParseIDType(id string) (IDType, error) {
	if !ValidateID(id) {
		return "", fmt.Errorf("invalid ID format: %s", id)
	}
	match := idRegex.FindStringSubmatch(id)
	return IDType(match[1]), nil
}

// NowUTC returns the ISO 8601 UTC timestamp format used in every persisted
// record (trailing Z, microsecond precision).
func NowUTC() string {
	return time.Now().UTC().Format("2006-01-02T15:04:05.000000Z")
}
