package consul

import (
	"testing"

	consulapi "github.com/hashicorp/consul/api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistration_AgentRegistration(t *testing.T) {
	r := Registration{Name: "storefront", Host: "10.0.0.5", HTTPPort: 8080, GRPCPort: 9090}

	reg := r.AgentRegistration()
	assert.Equal(t, "storefront-10.0.0.5-8080", reg.ID)
	assert.Equal(t, "storefront", reg.Name)
	assert.Equal(t, 8080, reg.Port)
	assert.Equal(t, "9090", reg.Meta["grpc_port"])
	require.NotNil(t, reg.Check)
	assert.Equal(t, "http://10.0.0.5:8080/ping", reg.Check.HTTP)
}

func TestNewClient(t *testing.T) {
	client, err := NewClient("127.0.0.1:8500")
	require.NoError(t, err)
	assert.NotNil(t, client)
}

func TestEntryAddress(t *testing.T) {
	entry := &consulapi.ServiceEntry{
		Node: &consulapi.Node{Address: "10.0.0.9"},
		Service: &consulapi.AgentService{
			Service: "storefront",
			Port:    8080,
			Meta:    map[string]string{"grpc_port": "9090"},
		},
	}

	addr, err := entryAddress(entry, false)
	require.NoError(t, err)
	assert.Equal(t, "10.0.0.9:8080", addr)

	addr, err = entryAddress(entry, true)
	require.NoError(t, err)
	assert.Equal(t, "10.0.0.9:9090", addr)

	entry.Service.Address = "10.0.0.5"
	delete(entry.Service.Meta, "grpc_port")
	addr, err = entryAddress(entry, false)
	require.NoError(t, err)
	assert.Equal(t, "10.0.0.5:8080", addr)
	_, err = entryAddress(entry, true)
	assert.Error(t, err)
}
