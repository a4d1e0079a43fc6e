package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/users/internal/flagx"
	"github.com/dmitrijs2005/users/internal/timex"
)

// JsonConfig is the on-disk form of Config. Intervals use timex.Duration so
// they can be written as "15m" or as integer nanoseconds.
type JsonConfig struct {
	EndpointAddrGRPC string `json:"endpoint_addr_grpc"`
	EndpointAddrOps  string `json:"endpoint_addr_ops"`
	DatabaseDSN      string `json:"database_dsn"`
	DBMaxRetries     int    `json:"db_max_retries"`
	SecretKey        string `json:"secret_key"`
	AdminKey         string `json:"admin_key"`
	LogLevel         string `json:"log_level"`

	AccessTokenValidityDuration timex.Duration `json:"access_token_validity_duration"`
	SessionTTL                  timex.Duration `json:"session_ttl"`
	SlidingWindow               timex.Duration `json:"sliding_window"`
	MaxSessionLifetime          timex.Duration `json:"max_session_lifetime"`
	SingleSession               bool           `json:"single_session"`

	HashPolicyVersion int    `json:"hash_policy_version"`
	BcryptCost        int    `json:"bcrypt_cost"`
	Argon2Time        uint32 `json:"argon2_time"`
	Argon2MemoryKiB   uint32 `json:"argon2_memory_kib"`
	Argon2Threads     uint8  `json:"argon2_threads"`
	MinPasswordLength int    `json:"min_password_length"`

	LockoutThreshold int            `json:"lockout_threshold"`
	LockoutWindow    timex.Duration `json:"lockout_window"`
	LockoutDuration  timex.Duration `json:"lockout_duration"`

	RequestTimeout   timex.Duration `json:"request_timeout"`
	SweepInterval    timex.Duration `json:"sweep_interval"`
	DeletionGrace    timex.Duration `json:"deletion_grace"`
	RevokedRetention timex.Duration `json:"revoked_retention"`
	ResetTokenTTL    timex.Duration `json:"reset_token_ttl"`

	NATSURL           string `json:"nats_url"`
	NATSStream        string `json:"nats_stream"`
	NATSSubjectPrefix string `json:"nats_subject_prefix"`

	S3RootUser     string         `json:"s3_root_user"`
	S3RootPassword string         `json:"s3_root_password"`
	S3Bucket       string         `json:"s3_bucket"`
	S3Region       string         `json:"s3_region"`
	S3BaseEndpoint string         `json:"s3_base_endpoint"`
	S3Prefix       string         `json:"s3_prefix"`
	S3FlushPeriod  timex.Duration `json:"s3_flush_period"`
}

func toJson(c *Config) *JsonConfig {
	return &JsonConfig{
		EndpointAddrGRPC:            c.EndpointAddrGRPC,
		EndpointAddrOps:             c.EndpointAddrOps,
		DatabaseDSN:                 c.DatabaseDSN,
		DBMaxRetries:                c.DBMaxRetries,
		SecretKey:                   c.SecretKey,
		AdminKey:                    c.AdminKey,
		LogLevel:                    c.LogLevel,
		AccessTokenValidityDuration: timex.Duration{Duration: c.AccessTokenValidityDuration},
		SessionTTL:                  timex.Duration{Duration: c.SessionTTL},
		SlidingWindow:               timex.Duration{Duration: c.SlidingWindow},
		MaxSessionLifetime:          timex.Duration{Duration: c.MaxSessionLifetime},
		SingleSession:               c.SingleSession,
		HashPolicyVersion:           c.HashPolicyVersion,
		BcryptCost:                  c.BcryptCost,
		Argon2Time:                  c.Argon2Time,
		Argon2MemoryKiB:             c.Argon2MemoryKiB,
		Argon2Threads:               c.Argon2Threads,
		MinPasswordLength:           c.MinPasswordLength,
		LockoutThreshold:            c.LockoutThreshold,
		LockoutWindow:               timex.Duration{Duration: c.LockoutWindow},
		LockoutDuration:             timex.Duration{Duration: c.LockoutDuration},
		RequestTimeout:              timex.Duration{Duration: c.RequestTimeout},
		SweepInterval:               timex.Duration{Duration: c.SweepInterval},
		DeletionGrace:               timex.Duration{Duration: c.DeletionGrace},
		RevokedRetention:            timex.Duration{Duration: c.RevokedRetention},
		ResetTokenTTL:               timex.Duration{Duration: c.ResetTokenTTL},
		NATSURL:                     c.NATSURL,
		NATSStream:                  c.NATSStream,
		NATSSubjectPrefix:           c.NATSSubjectPrefix,
		S3RootUser:                  c.S3RootUser,
		S3RootPassword:              c.S3RootPassword,
		S3Bucket:                    c.S3Bucket,
		S3Region:                    c.S3Region,
		S3BaseEndpoint:              c.S3BaseEndpoint,
		S3Prefix:                    c.S3Prefix,
		S3FlushPeriod:               timex.Duration{Duration: c.S3FlushPeriod},
	}
}

func (j *JsonConfig) apply(c *Config) {
	c.EndpointAddrGRPC = j.EndpointAddrGRPC
	c.EndpointAddrOps = j.EndpointAddrOps
	c.DatabaseDSN = j.DatabaseDSN
	c.DBMaxRetries = j.DBMaxRetries
	c.SecretKey = j.SecretKey
	c.AdminKey = j.AdminKey
	c.LogLevel = j.LogLevel
	c.AccessTokenValidityDuration = j.AccessTokenValidityDuration.Duration
	c.SessionTTL = j.SessionTTL.Duration
	c.SlidingWindow = j.SlidingWindow.Duration
	c.MaxSessionLifetime = j.MaxSessionLifetime.Duration
	c.SingleSession = j.SingleSession
	c.HashPolicyVersion = j.HashPolicyVersion
	c.BcryptCost = j.BcryptCost
	c.Argon2Time = j.Argon2Time
	c.Argon2MemoryKiB = j.Argon2MemoryKiB
	c.Argon2Threads = j.Argon2Threads
	c.MinPasswordLength = j.MinPasswordLength
	c.LockoutThreshold = j.LockoutThreshold
	c.LockoutWindow = j.LockoutWindow.Duration
	c.LockoutDuration = j.LockoutDuration.Duration
	c.RequestTimeout = j.RequestTimeout.Duration
	c.SweepInterval = j.SweepInterval.Duration
	c.DeletionGrace = j.DeletionGrace.Duration
	c.RevokedRetention = j.RevokedRetention.Duration
	c.ResetTokenTTL = j.ResetTokenTTL.Duration
	c.NATSURL = j.NATSURL
	c.NATSStream = j.NATSStream
	c.NATSSubjectPrefix = j.NATSSubjectPrefix
	c.S3RootUser = j.S3RootUser
	c.S3RootPassword = j.S3RootPassword
	c.S3Bucket = j.S3Bucket
	c.S3Region = j.S3Region
	c.S3BaseEndpoint = j.S3BaseEndpoint
	c.S3Prefix = j.S3Prefix
	c.S3FlushPeriod = j.S3FlushPeriod.Duration
}

// parseJson overlays values from a JSON file onto config.
//
// The file path comes from the -c/-config flags or, failing that, the
// USERS_CONFIG environment variable. Keys absent from the file keep their
// current values. An unreadable file or invalid JSON panics.
func parseJson(config *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()

	// nothing to load
	if jsonConfigFile == "" {
		return
	}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	c := toJson(config)
	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}
	c.apply(config)
}
