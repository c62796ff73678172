package database

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/iot-for-tillgenglighet/api-tollmanagement/internal/pkg/persistence"
)

const segmentRecordFields = 6

//SeedRoadSegments reads road segments from rd, one per line formatted as
//id;length;start;target;name;type, and inserts them into MAUTABSCHNITT. Malformed records
//are skipped. Returns the number of inserted segments.
func SeedRoadSegments(db *gorm.DB, rd io.Reader, log log.FieldLogger) (int, error) {
	reader := bufio.NewReader(rd)
	count := 0
	lineNumber := 0

	var line string
	var err error

	log.Infof("Seeding road segments ...")

	for {
		line, err = reader.ReadString('\n')
		if err != nil && err != io.EOF {
			break
		}
		lineNumber++

		line = strings.TrimRight(line, "\r\n")
		if strings.TrimSpace(line) != "" {
			segment, parseErr := parseRoadSegment(line)
			if parseErr != nil {
				log.Errorf("Failed to parse road segment on line %d: %s. Skipping record.", lineNumber, parseErr.Error())
			} else if createErr := db.Create(&segment).Error; createErr != nil {
				return count, fmt.Errorf("failed to store road segment %d: %w", segment.ID, createErr)
			} else {
				count++
			}
		}

		if err != nil {
			break
		}
	}

	if err != io.EOF {
		log.Errorf(" > Failed with error: %v\n", err)
		return count, err
	}

	log.Infof("Seeded %d road segments.", count)

	return count, nil
}

func parseRoadSegment(line string) (persistence.RoadSegment, error) {
	parts := strings.Split(line, ";")
	if len(parts) != segmentRecordFields {
		return persistence.RoadSegment{}, fmt.Errorf("expected %d fields but found %d", segmentRecordFields, len(parts))
	}

	id, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return persistence.RoadSegment{}, fmt.Errorf("bad segment id %q", parts[0])
	}

	length, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return persistence.RoadSegment{}, fmt.Errorf("bad segment length %q", parts[1])
	}

	return persistence.RoadSegment{
		ID:               id,
		Length:           length,
		StartCoordinate:  strings.TrimSpace(parts[2]),
		TargetCoordinate: strings.TrimSpace(parts[3]),
		Name:             strings.TrimSpace(parts[4]),
		Type:             strings.TrimSpace(parts[5]),
	}, nil
}
