package server

const (
	DefaultAddr           = "0.0.0.0:4000"
	DefaultImageDir       = "wallpapers"
	DefaultMaxUploadBytes = 30 << 20 // matches the edge proxy's body limit
	DefaultUploadRate     = "60-M"   // uploads+deletes per client IP
)

type Config struct {
	HTTP           HTTPConfig
	ImageDir       string
	DBPath         string
	MaxUploadBytes int64
	UploadRate     string
}

type HTTPConfig struct {
	Addr     string
	CertFile string
	KeyFile  string
}
