package db

// Config selects the gorm dialect and the connection pool shape. Type is one
// of postgres, mysql or sqlite; for sqlite only Name (the file path) matters,
// which keeps single-machine installs zero-config. Lifetime knobs are seconds.
type Config struct {
	Type            string
	Host            string
	Port            string
	Name            string
	User            string
	Password        string
	SSLMode         string
	MaxIdleConn     int
	MaxOpenConn     int
	ConnMaxLifetime int
	ConnMaxIdleTime int
}
