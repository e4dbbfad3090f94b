// Package scheme reads a development's profile and verified contacts from
// Postgres. Each call hits the database; nothing is cached between jobs.
package scheme

import (
	"context"
	"database/sql"
	stderrors "errors"
	"fmt"
	"strings"

	"concierge-workers/internal/assistant/escalation"
	"concierge-workers/internal/assistant/playbook"
	"concierge-workers/internal/common/errors"
)

// Profile is everything the assistant knows about one scheme.
type Profile struct {
	SchemeID string
	Context  playbook.SchemeContext
	Contacts escalation.SchemeContacts
}

type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

var developerColumns = []string{
	"developer_name",
	"developer_email",
	"developer_phone",
	"developer_address",
}

var profileSQL = fmt.Sprintf(
	"SELECT %s, %s FROM scheme_profile WHERE scheme_id = $1",
	strings.Join(developerColumns, ", "),
	strings.Join(playbook.SchemeFields, ", "),
)

const installersSQL = `SELECT category, name, email, phone, specialty
	FROM scheme_installers WHERE scheme_id = $1 ORDER BY category`

// Load returns the profile for schemeID, or a SCHEME_NOT_FOUND error.
func (s *Store) Load(ctx context.Context, schemeID string) (*Profile, error) {
	values := make([]sql.NullString, len(developerColumns)+len(playbook.SchemeFields))
	dest := make([]interface{}, len(values))
	for i := range values {
		dest[i] = &values[i]
	}

	err := s.db.QueryRowContext(ctx, profileSQL, schemeID).Scan(dest...)
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, errors.NewSchemeNotFoundError(schemeID)
	}
	if err != nil {
		return nil, lookupError(schemeID, "scheme_profile", err)
	}

	p := &Profile{SchemeID: schemeID}
	for i, field := range playbook.SchemeFields {
		p.Context.Set(field, values[len(developerColumns)+i].String)
	}

	p.Contacts.Developer = contactOrNil(escalation.Contact{
		Name:    known(values[0].String),
		Email:   known(values[1].String),
		Phone:   known(values[2].String),
		Address: known(values[3].String),
	})
	p.Contacts.OMC = contactOrNil(escalation.Contact{
		Name:  known(p.Context.ManagingAgentName),
		Email: known(p.Context.ContactEmail),
		Phone: known(p.Context.ContactPhone),
	})

	installers, err := s.installers(ctx, schemeID)
	if err != nil {
		return nil, lookupError(schemeID, "scheme_installers", err)
	}
	p.Contacts.Installers = installers

	return p, nil
}

func (s *Store) installers(ctx context.Context, schemeID string) (map[string]escalation.Contact, error) {
	rows, err := s.db.QueryContext(ctx, installersSQL, schemeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := map[string]escalation.Contact{}
	for rows.Next() {
		var category, name, email, phone, specialty sql.NullString
		if err := rows.Scan(&category, &name, &email, &phone, &specialty); err != nil {
			return nil, err
		}
		c := escalation.Contact{
			Name:      known(name.String),
			Email:     known(email.String),
			Phone:     known(phone.String),
			Specialty: known(specialty.String),
		}
		if c.Name == "" && c.Email == "" && c.Phone == "" {
			continue
		}
		out[category.String] = c
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, nil
	}
	return out, nil
}

// known drops blanks and the 'unknown' enum value so they never reach a
// contact line.
func known(v string) string {
	v = strings.TrimSpace(v)
	if strings.EqualFold(v, playbook.UnknownValue) {
		return ""
	}
	return v
}

// contactOrNil treats a contact without a name, email or phone as absent.
// An address alone is not a way to reach anyone.
func contactOrNil(c escalation.Contact) *escalation.Contact {
	if c.Name == "" && c.Email == "" && c.Phone == "" {
		return nil
	}
	return &c
}

func lookupError(schemeID, queryType string, err error) error {
	if stderrors.Is(err, context.DeadlineExceeded) {
		return errors.NewQueryTimeoutError(queryType)
	}
	return errors.NewSchemeLookupFailedError(schemeID, err)
}
