package storage

import (
	"database/sql"
	"fmt"
	"time"
)

// StringDest scans a nullable TEXT column into dst, storing "" for NULL.
func StringDest(dst *string) sql.Scanner {
	return &stringDest{dst: dst}
}

type stringDest struct{ dst *string }

func (d *stringDest) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*d.dst = ""
	case string:
		*d.dst = v
	case []byte:
		*d.dst = string(v)
	default:
		*d.dst = fmt.Sprint(v)
	}
	return nil
}

// TimeDest scans a TimeLayout TEXT column into dst, storing the zero time for NULL.
func TimeDest(dst *time.Time) sql.Scanner {
	return &timeDest{dst: dst}
}

type timeDest struct{ dst *time.Time }

func (d *timeDest) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*d.dst = time.Time{}
		return nil
	case time.Time:
		*d.dst = v
		return nil
	case string:
		return d.parse(v)
	case []byte:
		return d.parse(string(v))
	}
	return fmt.Errorf("cannot scan %T into time", src)
}

func (d *timeDest) parse(s string) error {
	if s == "" {
		*d.dst = time.Time{}
		return nil
	}
	t, err := ParseTime(s)
	if err != nil {
		return err
	}
	*d.dst = t
	return nil
}
