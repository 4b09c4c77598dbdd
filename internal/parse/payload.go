package parse

import (
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"
)

var (
	seqRe    = regexp.MustCompile(`[-#/](\d+)\s*$`)
	digitsRe = regexp.MustCompile(`^\d+$`)
)

// LabelScheme is the URL scheme printed on locker box labels.
const LabelScheme = "locker"

// Payload is what a scanned locker label identifies.
type Payload struct {
	Cabinet string
	Box     int
}

// String renders the payload in the label format, locker://<cabinet>/<box>.
func (p Payload) String() string {
	return fmt.Sprintf("%s://%s/%d", LabelScheme, p.Cabinet, p.Box)
}

// ParsePayload extracts the cabinet and box number from decoded barcode text.
// Accepted shapes:
//
//	locker://A3/12
//	https://host/open?cabinet=A3&box=12
//	A3-12, A3#12
//	12
func ParsePayload(raw string) (Payload, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return Payload{}, fmt.Errorf("empty payload")
	}

	if u, err := url.Parse(s); err == nil && u.Scheme != "" {
		if p, ok := fromURL(u); ok {
			return p, nil
		}
		return Payload{}, fmt.Errorf("no box number in url %q", raw)
	}

	if digitsRe.MatchString(s) {
		box, err := strconv.Atoi(s)
		if err != nil {
			return Payload{}, fmt.Errorf("invalid box number %q: %w", raw, err)
		}
		return Payload{Box: box}, nil
	}

	if loc := seqRe.FindStringSubmatchIndex(s); loc != nil {
		box, err := strconv.Atoi(s[loc[2]:loc[3]])
		if err == nil {
			return Payload{Cabinet: strings.TrimSpace(s[:loc[0]]), Box: box}, nil
		}
	}

	return Payload{}, fmt.Errorf("unable to parse payload: %q", raw)
}

func fromURL(u *url.URL) (Payload, bool) {
	q := u.Query()
	if b := q.Get("box"); b != "" {
		box, err := strconv.Atoi(b)
		if err != nil {
			return Payload{}, false
		}
		return Payload{Cabinet: q.Get("cabinet"), Box: box}, true
	}

	if u.Scheme == LabelScheme {
		// locker://<cabinet>/<box>: the cabinet lands in Host.
		box, err := strconv.Atoi(strings.Trim(u.Path, "/"))
		if err != nil {
			return Payload{}, false
		}
		return Payload{Cabinet: u.Host, Box: box}, true
	}
	return Payload{}, false
}
