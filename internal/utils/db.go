package utils

import (
	"errors"
	"net"
	"net/url"
	"strconv"
	"time"
)

var (
	ErrEmptyHost       = errors.New("postgres host is empty")
	ErrInvalidPort     = errors.New("postgres port is invalid")
	ErrEmptyUser       = errors.New("postgres user is empty")
	ErrEmptyPassword   = errors.New("postgres password is empty")
	ErrEmptyDatabase   = errors.New("postgres database name is empty")
	ErrEmptySSLMode    = errors.New("postgres sslmode is empty")
	ErrInvalidPoolSize = errors.New("postgres pool size is invalid")
	ErrInvalidTimeout  = errors.New("postgres connect timeout is invalid")
)

// GenerateConnectionString собирает URL для pgxpool.
// Логин и пароль экранируются, поэтому допускают любые символы.
func GenerateConnectionString(
	host, user, password, dbName, sslMode string,
	port, poolSize int,
	timeout time.Duration,
) (string, error) {
	switch {
	case host == "":
		return "", ErrEmptyHost
	case port <= 0 || port > 65535:
		return "", ErrInvalidPort
	case user == "":
		return "", ErrEmptyUser
	case password == "":
		return "", ErrEmptyPassword
	case dbName == "":
		return "", ErrEmptyDatabase
	case sslMode == "":
		return "", ErrEmptySSLMode
	case poolSize < 0:
		return "", ErrInvalidPoolSize
	case timeout < 0:
		return "", ErrInvalidTimeout
	}

	query := url.Values{}
	query.Set("sslmode", sslMode)
	if timeout > 0 {
		query.Set("connect_timeout", strconv.Itoa(int(timeout.Seconds())))
	}
	if poolSize > 0 {
		query.Set("pool_max_conns", strconv.Itoa(poolSize))
	}

	dsn := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(user, password),
		Host:     net.JoinHostPort(host, strconv.Itoa(port)),
		Path:     "/" + dbName,
		RawQuery: query.Encode(),
	}
	return dsn.String(), nil
}
