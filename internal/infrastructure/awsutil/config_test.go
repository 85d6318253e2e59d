package awsutil

import (
	"context"
	"testing"

	"github.com/callog-relay/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEndpoint(t *testing.T) {
	assert.Nil(t, Endpoint(&config.Config{}))

	ep := Endpoint(&config.Config{AWSEndpointURL: "http://localstack:4566"})
	require.NotNil(t, ep)
	assert.Equal(t, "http://localstack:4566", *ep)
}

func TestLoadConfig_StaticCredentialsAndRegion(t *testing.T) {
	cfg := &config.Config{AWSRegion: "ap-northeast-1", AWSAccessKeyID: "test", AWSSecretKey: "secret"}

	awsCfg, err := LoadConfig(context.Background(), cfg, "")
	require.NoError(t, err)
	assert.Equal(t, "ap-northeast-1", awsCfg.Region)

	creds, err := awsCfg.Credentials.Retrieve(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "test", creds.AccessKeyID)

	awsCfg, err = LoadConfig(context.Background(), cfg, "us-west-2")
	require.NoError(t, err)
	assert.Equal(t, "us-west-2", awsCfg.Region)
}
