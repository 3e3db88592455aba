package shared

import (
	"fmt"
	"net"
	"strings"

	"github.com/pkg/errors"
	"github.com/relloyd/pgshift/constants"
	"github.com/xo/dburl"
)

// redshiftDefaultPort is applied when a redshift:// DSN omits the port.
const redshiftDefaultPort = "5439"

// supportedSchemes maps the accepted DSN schemes, including dburl aliases, to a connection type.
var supportedSchemes = map[string]string{
	"postgres":   constants.ConnectionTypePostgres,
	"postgresql": constants.ConnectionTypePostgres,
	"pg":         constants.ConnectionTypePostgres,
	"pgsql":      constants.ConnectionTypePostgres,
	"redshift":   constants.ConnectionTypeRedshift,
	"rs":         constants.ConnectionTypeRedshift,
}

// DsnConnectionDetails is a simple struct to hold a DSN and the logical name it was supplied for.
type DsnConnectionDetails struct {
	LogicalName    string
	Dsn            string `errorTxt:"data source name i.e. connect string" mandatory:"yes"`
	OriginalScheme string
}

// NewDsnConnectionDetails parses dsn and returns the populated struct.
func NewDsnConnectionDetails(logicalName string, dsn string) (*DsnConnectionDetails, error) {
	d := &DsnConnectionDetails{LogicalName: logicalName, Dsn: dsn}
	if err := d.Parse(); err != nil {
		return nil, err
	}
	return d, nil
}

// String returns the DSN with redacted password.
func (d DsnConnectionDetails) String() string {
	u, err := dburl.Parse(d.Dsn)
	if err != nil {
		return fmt.Sprintf("<unparseable %v DSN>", strings.ToLower(d.LogicalName))
	}
	return u.Redacted()
}

// Parse validates the DSN and saves its scheme.
// Only postgres and redshift schemes (and their dburl aliases) are accepted.
func (d *DsnConnectionDetails) Parse() error {
	if d.Dsn == "" { // if the Dsn is invalid...
		return errors.Errorf("%v DSN not found", strings.ToLower(d.LogicalName))
	}
	u, err := dburl.Parse(d.Dsn)
	if err != nil {
		return errors.Wrapf(err, "%v DSN could not be parsed", strings.ToLower(d.LogicalName))
	}
	if _, ok := supportedSchemes[strings.ToLower(u.OriginalScheme)]; !ok {
		return errors.Errorf("%v DSN uses unsupported scheme %q (expected postgres:// or redshift://)", strings.ToLower(d.LogicalName), u.OriginalScheme)
	}
	d.OriginalScheme = u.OriginalScheme
	return nil
}

// ConnString returns a postgres:// URL that pgx understands.
// redshift:// URLs are rewritten and given the default Redshift port when none is supplied.
func (d DsnConnectionDetails) ConnString() (string, error) {
	u, err := dburl.Parse(d.Dsn)
	if err != nil {
		return "", errors.Wrapf(err, "%v DSN could not be parsed", strings.ToLower(d.LogicalName))
	}
	pgUrl := u.URL // copy the net/url component.
	if supportedSchemes[strings.ToLower(u.OriginalScheme)] == constants.ConnectionTypeRedshift { // if we need the Redshift port default...
		if pgUrl.Port() == "" {
			pgUrl.Host = net.JoinHostPort(pgUrl.Hostname(), redshiftDefaultPort)
		}
	}
	pgUrl.Scheme = constants.ConnectionTypePostgres
	return pgUrl.String(), nil
}

// GetScheme returns the scheme the DSN was originally supplied with.
func (d *DsnConnectionDetails) GetScheme() (string, error) {
	if d.OriginalScheme == "" {
		if err := d.Parse(); err != nil {
			return "", err
		}
	}
	return d.OriginalScheme, nil
}

// GetType returns the connection type implied by the DSN scheme, or empty string if it is unsupported.
func (d DsnConnectionDetails) GetType() string {
	u, err := dburl.Parse(d.Dsn)
	if err != nil {
		return ""
	}
	return supportedSchemes[strings.ToLower(u.OriginalScheme)]
}
