package dbx

import (
	"fmt"
	"net/url"
	"strconv"
)

// ConnConfig represents the configuration required for database connection.
type ConnConfig struct {
	VpcDirectConnection bool
	Host                string
	Port                int32
	DBName              string
	User                string
	Password            string
	MaxConn             int32
	IsLocalEnv          bool
}

// ConnString renders the configuration as a postgres URL understood by both pgx and lib/pq.
//
// Local and VPC-direct connections go through host and port. Otherwise the host is treated as a
// Cloud SQL instance name and reached through the unix socket mounted by the proxy.
func (c ConnConfig) ConnString() string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(c.User, c.Password),
		Path:   "/" + c.DBName,
	}

	query := url.Values{}
	if c.IsLocalEnv || c.VpcDirectConnection {
		u.Host = c.Host
		if c.Port > 0 {
			u.Host = fmt.Sprintf("%s:%s", c.Host, strconv.Itoa(int(c.Port)))
		}
		if c.IsLocalEnv {
			query.Set("sslmode", "disable")
		}
	} else {
		query.Set("host", fmt.Sprintf("/cloudsql/%s", c.Host))
	}

	u.RawQuery = query.Encode()

	return u.String()
}
