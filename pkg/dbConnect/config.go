package dbconnect

// DBConfig holds the Postgres connection settings
type DBConfig struct {
	Host       string `yaml:"host"`
	Port       string `yaml:"port"`
	Dbuser     string `yaml:"dbuser"`
	Dbpassword string `yaml:"dbpassword"`
	Dbname     string `yaml:"dbname"`
	Sslmode    string `yaml:"sslmode"`
}

// DSN renders the lib/pq keyword/value connection string
func (c DBConfig) DSN() string {
	sslmode := c.Sslmode
	if sslmode == "" {
		sslmode = "disable"
	}
	return "host=" + c.Host +
		" port=" + c.Port +
		" user=" + c.Dbuser +
		" password=" + c.Dbpassword +
		" dbname=" + c.Dbname +
		" sslmode=" + sslmode +
		" TimeZone=UTC"
}
