package types

import (
	"encoding/json"
	"fmt"
	"time"
)

var dateTimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// DateTime decodes timestamps sent with or without a zone offset. Clients
// of the original wire contract send both forms.
type DateTime time.Time

func (d *DateTime) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	for _, layout := range dateTimeLayouts {
		if parsed, err := time.Parse(layout, raw); err == nil {
			*d = DateTime(parsed)
			return nil
		}
	}
	return fmt.Errorf("invalid timestamp %q", raw)
}

func (d DateTime) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Time(d).Format(time.RFC3339Nano))
}

// Time returns the underlying time value.
func (d DateTime) Time() time.Time {
	return time.Time(d)
}
