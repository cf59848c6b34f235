package gateway

import (
	"testing"
	"time"

	"github.com/KOMKZ/go-yogan-throttle/admission"
	"github.com/KOMKZ/go-yogan-throttle/bucket"
	"github.com/KOMKZ/go-yogan-throttle/flowqueue"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfig_ApplyDefaults(t *testing.T) {
	cfg := Config{
		Buckets: []bucket.Spec{{ID: "A", Config: bucket.Config{Capacity: 10}}},
		Queues:  []flowqueue.Spec{{Path: "/p"}},
	}
	cfg.ApplyDefaults()

	assert.Equal(t, admission.DefaultMaxWeightFactor, cfg.MaxWeightFactor)
	assert.Equal(t, flowqueue.DefaultPoolSize, cfg.PoolSize)
	assert.Equal(t, int64(10), cfg.Buckets[0].RefillAmount)
	assert.Equal(t, time.Second, cfg.Buckets[0].RefillInterval)
	assert.Equal(t, flowqueue.DefaultPeriod, cfg.Queues[0].Period)
	require.NoError(t, cfg.Validate())
}

func TestConfig_Validate(t *testing.T) {
	valid := func() Config {
		cfg := Config{
			Buckets: []bucket.Spec{
				{ID: "A", Config: bucket.Config{Capacity: 10}},
				{ID: "a", Config: bucket.Config{Capacity: 5}},
			},
			Queues: []flowqueue.Spec{{Path: "/p"}},
		}
		cfg.ApplyDefaults()
		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr error
	}{
		{name: "valid", mutate: func(*Config) {}},
		{
			name:    "duplicate bucket id",
			mutate:  func(c *Config) { c.Buckets[1].ID = "A" },
			wantErr: ErrInvalidConfig,
		},
		{
			name:    "negative refill amount",
			mutate:  func(c *Config) { c.Buckets[1].RefillAmount = -1 },
			wantErr: bucket.ErrInvalidConfig,
		},
		{
			name:    "negative queue limit",
			mutate:  func(c *Config) { c.Queues[0].Limit = -1 },
			wantErr: flowqueue.ErrInvalidConfig,
		},
		{
			name:    "zero weight factor",
			mutate:  func(c *Config) { c.MaxWeightFactor = 0 },
			wantErr: ErrInvalidConfig,
		},
		{
			name:    "negative result ttl",
			mutate:  func(c *Config) { c.ResultTTL = -time.Second },
			wantErr: ErrInvalidConfig,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}
