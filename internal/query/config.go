package query

import "time"

type Config struct {
	RequestTimeout time.Duration `envconfig:"KD_QUERY_REQUEST_TIMEOUT" default:"30s"`
	MaxQueries     int           `envconfig:"KD_QUERY_MAX_QUERIES" default:"1024"`
	MaxK           int           `envconfig:"KD_QUERY_MAX_K" default:"1000"`
	MaxPoints      int           `envconfig:"KD_QUERY_MAX_POINTS" default:"1000000"`
	Concurrency    int           `envconfig:"KD_QUERY_CONCURRENCY" default:"8"`
}
