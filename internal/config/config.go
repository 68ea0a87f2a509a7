package config

type Config struct {
	Environment Environment
	Log         Log
	HTTP        HTTPServer
	BaseURL     string `env:"BASE_URL"`
	FrontendURL string `env:"FRONTEND_URL" envDefault:"http://localhost:5174"`
	DatabaseURL string `env:"DATABASE_URL"`
	JWTSecret   string `env:"JWT_SECRET"`

	// Gateway selects the active payment gateway adapter.
	Gateway string `env:"PAYMENT_GATEWAY" envDefault:"razorpay"`

	Razorpay Razorpay `envPrefix:"RAZORPAY_"`
	Cashfree Cashfree `envPrefix:"CASHFREE_"`
	SMTP     SMTP     `envPrefix:"SMTP_"`
	Order    Order
}

type Razorpay struct {
	BaseApiURL    string `env:"BASE_API_URL" envDefault:"https://api.razorpay.com"`
	KeyID         string `env:"KEY_ID"`
	KeySecret     string `env:"KEY_SECRET"`
	WebhookSecret string `env:"WEBHOOK_SECRET"`
}

type Cashfree struct {
	AppID         string `env:"APP_ID"`
	SecretKey     string `env:"SECRET_KEY"`
	WebhookSecret string `env:"WEBHOOK_SECRET"`
}

type SMTP struct {
	Host     string `env:"HOST"`
	Port     int    `env:"PORT" envDefault:"587"`
	Username string `env:"USERNAME"`
	Password string `env:"PASSWORD"`
	From     string `env:"FROM"`
}

type Order struct {
	// MinAmount is the smallest accepted order amount in minor currency
	// units (paise).
	MinAmount int64 `env:"ORDER_MIN_AMOUNT" envDefault:"100"`
	// TTLHours: orders still in created state after this many hours are
	// swept to failed.
	TTLHours int `env:"ORDER_TTL_HOURS" envDefault:"24"`
}

type Environment struct {
	// Name selects the gateway environment: sandbox or production.
	Name string `env:"ENVIRONMENT" envDefault:"sandbox"`
}

type Log struct {
	Level  string `env:"LOG_LEVEL" envDefault:"info"`
	Format string `env:"LOG_FORMAT" envDefault:"json"`
}

type HTTPServer struct {
	Host string `env:"HTTP_HOST" envDefault:"0.0.0.0"`
	Port string `env:"HTTP_PORT" envDefault:"8080"`
}
