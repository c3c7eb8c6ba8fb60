package importer

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"
)

// ErrRecordDecode marks a single bad line. It never escalates past the
// parser: the line is skipped and the rest of the file continues.
var ErrRecordDecode = errors.New("record decode failed")

// maxLineBytes bounds one JSON line of the dump. Register records with long
// person lists have been seen in the tens of megabytes.
const maxLineBytes = 64 * 1024 * 1024

// Record is the normalized projection of one source line. FullRecord keeps
// the original JSON verbatim for later raw display.
type Record struct {
	CompanyID         string
	RawName           *string
	LegalName         *string
	LegalForm         *string
	Status            *string
	Terminated        *bool
	RegisterUniqueKey *string
	RegisterID        *string
	AddressCity       *string
	AddressPostalCode *string
	AddressCountry    *string
	LastUpdateTime    *time.Time
	FullRecord        json.RawMessage
	Persons           []RelatedPerson
}

// RelatedPerson is one embedded person entry with its role metadata.
type RelatedPerson struct {
	PersonID        string
	FirstName       *string
	LastName        *string
	BirthYear       *int
	AddressCity     *string
	FullRecord      json.RawMessage
	RoleType        string
	RoleDescription *string
	RoleDate        *time.Time
}

// Wire shapes of the dump. Only fields the pipeline needs are mapped; the
// rest ride along inside FullRecord.
type wireRecord struct {
	ID      string  `json:"id"`
	RawName *string `json:"rawName"`
	Name    struct {
		Name      *string `json:"name"`
		LegalForm *string `json:"legalForm"`
	} `json:"name"`
	Status     *string `json:"status"`
	Terminated *bool   `json:"terminated"`
	Register   struct {
		UniqueKey *string `json:"uniqueKey"`
		ID        *string `json:"id"`
	} `json:"register"`
	Address struct {
		City       *string `json:"city"`
		PostalCode *string `json:"postalCode"`
		Country    *string `json:"country"`
	} `json:"address"`
	LastUpdateTime *string `json:"lastUpdateTime"`
	RelatedPersons struct {
		Items []wireRelatedPerson `json:"items"`
	} `json:"relatedPersons"`
}

// The person sub-object is captured raw so it round-trips verbatim into
// full_record; the typed fields come from a second decode of the same bytes.
type wireRelatedPerson struct {
	Person json.RawMessage `json:"person"`
	Roles  []struct {
		Type *string `json:"type"`
		Date *string `json:"date"`
	} `json:"roles"`
	Description *string `json:"description"`
}

type wirePerson struct {
	ID   string `json:"id"`
	Name struct {
		FirstName *string `json:"firstName"`
		LastName  *string `json:"lastName"`
	} `json:"name"`
	BirthYear *int `json:"birthYear"`
	Address   struct {
		City *string `json:"city"`
	} `json:"address"`
}

type ParseResult struct {
	Records   []Record // file order, duplicate company ids included
	LinesRead int      // every line of the file, blank and malformed included
	Skipped   int      // blank or malformed lines
}

type Parser struct {
	logger *zap.Logger
}

func NewParser(logger *zap.Logger) *Parser {
	return &Parser{logger: logger.Named("importer.parser")}
}

// ParseLine decodes one line of the dump into a Record. A line that is not
// valid JSON, or that carries no company id, fails with ErrRecordDecode.
func ParseLine(line []byte) (*Record, error) {
	var w wireRecord
	if err := json.Unmarshal(line, &w); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRecordDecode, err)
	}
	if w.ID == "" {
		return nil, fmt.Errorf("%w: missing company id", ErrRecordDecode)
	}

	raw := make(json.RawMessage, len(line))
	copy(raw, line)

	rec := &Record{
		CompanyID:         w.ID,
		RawName:           w.RawName,
		LegalName:         w.Name.Name,
		LegalForm:         w.Name.LegalForm,
		Status:            w.Status,
		Terminated:        w.Terminated,
		RegisterUniqueKey: w.Register.UniqueKey,
		RegisterID:        w.Register.ID,
		AddressCity:       w.Address.City,
		AddressPostalCode: w.Address.PostalCode,
		AddressCountry:    w.Address.Country,
		LastUpdateTime:    parseTimestamp(w.LastUpdateTime),
		FullRecord:        raw,
	}

	for _, item := range w.RelatedPersons.Items {
		var wp wirePerson
		if len(item.Person) == 0 || json.Unmarshal(item.Person, &wp) != nil {
			continue
		}
		if wp.ID == "" {
			continue
		}

		rp := RelatedPerson{
			PersonID:        wp.ID,
			FirstName:       wp.Name.FirstName,
			LastName:        wp.Name.LastName,
			BirthYear:       wp.BirthYear,
			AddressCity:     wp.Address.City,
			FullRecord:      item.Person,
			RoleDescription: item.Description,
		}

		if len(item.Roles) > 0 {
			if item.Roles[0].Type != nil {
				rp.RoleType = *item.Roles[0].Type
			}
			rp.RoleDate = parseDate(item.Roles[0].Date)
		}
		if rp.RoleType == "" && item.Description != nil {
			rp.RoleType = *item.Description
		}

		rec.Persons = append(rec.Persons, rp)
	}

	return rec, nil
}

// ReadFile streams the dump exactly once and retains every parsed record in
// memory for the rest of the job. Re-reading a multi-gigabyte file costs
// more than holding its projection. Only open/read failures are fatal.
func (p *Parser) ReadFile(path string) (ParseResult, error) {
	f, err := os.Open(path)
	if err != nil {
		return ParseResult{}, err
	}
	defer f.Close()

	var res ParseResult

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 1024*1024), maxLineBytes)

	for scanner.Scan() {
		res.LinesRead++

		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			res.Skipped++
			continue
		}

		rec, err := ParseLine(line)
		if err != nil {
			res.Skipped++
			p.logger.Debug("skipping malformed line",
				zap.Int("line", res.LinesRead),
				zap.Error(err),
			)
			continue
		}

		res.Records = append(res.Records, *rec)
	}

	if err := scanner.Err(); err != nil {
		return ParseResult{}, err
	}

	p.logger.Info("file parsed",
		zap.String("path", path),
		zap.Int("lines", res.LinesRead),
		zap.Int("records", len(res.Records)),
		zap.Int("skipped", res.Skipped),
	)

	return res, nil
}

func parseTimestamp(s *string) *time.Time {
	if s == nil || *s == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339, *s)
	if err != nil {
		return nil
	}
	return &t
}

func parseDate(s *string) *time.Time {
	if s == nil || *s == "" {
		return nil
	}
	t, err := time.Parse("2006-01-02", *s)
	if err != nil {
		return nil
	}
	return &t
}
