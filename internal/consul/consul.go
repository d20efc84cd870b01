package consul

import (
	"errors"
	"fmt"
	"net"
	"strconv"

	consulapi "github.com/hashicorp/consul/api"
)

// Registration describes this service instance in the catalog.
type Registration struct {
	Name     string
	Host     string
	HTTPPort int
	GRPCPort int
}

// ServiceID is the id the instance is registered under.
func (r Registration) ServiceID() string {
	return r.Name + "-" + r.Host + "-" + strconv.Itoa(r.HTTPPort)
}

// AgentRegistration builds the agent payload with an HTTP health check on
// /ping and the gRPC port advertised in the metadata.
func (r Registration) AgentRegistration() *consulapi.AgentServiceRegistration {
	return &consulapi.AgentServiceRegistration{
		ID:      r.ServiceID(),
		Name:    r.Name,
		Address: r.Host,
		Port:    r.HTTPPort,
		Tags:    []string{"http", "grpc"},
		Meta:    map[string]string{"grpc_port": strconv.Itoa(r.GRPCPort)},
		Check: &consulapi.AgentServiceCheck{
			HTTP:                           fmt.Sprintf("http://%s:%d/ping", r.Host, r.HTTPPort),
			Interval:                       "10s",
			Timeout:                        "2s",
			DeregisterCriticalServiceAfter: "1m",
		},
	}
}

func NewClient(address string) (*consulapi.Client, error) {
	cfg := consulapi.DefaultConfig()
	cfg.Address = address
	client, err := consulapi.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create consul client: %w", err)
	}
	return client, nil
}

func RegisterService(client *consulapi.Client, r Registration) error {
	if err := client.Agent().ServiceRegister(r.AgentRegistration()); err != nil {
		return fmt.Errorf("failed to register %s with consul: %w", r.Name, err)
	}
	return nil
}

func DeregisterService(client *consulapi.Client, r Registration) error {
	if err := client.Agent().ServiceDeregister(r.ServiceID()); err != nil {
		return fmt.Errorf("failed to deregister %s from consul: %w", r.Name, err)
	}
	return nil
}

// GetServiceAddress returns host:port of a healthy instance of serviceName.
// With grpc set the port advertised in the grpc_port metadata is used.
func GetServiceAddress(client *consulapi.Client, serviceName string, grpc bool) (string, error) {
	entries, _, err := client.Health().Service(serviceName, "", true, nil)
	if err != nil {
		return "", fmt.Errorf("failed to query consul for %s: %w", serviceName, err)
	}
	if len(entries) == 0 {
		return "", errors.New("no healthy instance of " + serviceName)
	}
	return entryAddress(entries[0], grpc)
}

func entryAddress(e *consulapi.ServiceEntry, grpc bool) (string, error) {
	host := e.Service.Address
	if host == "" && e.Node != nil {
		host = e.Node.Address
	}
	port := strconv.Itoa(e.Service.Port)
	if grpc {
		p, ok := e.Service.Meta["grpc_port"]
		if !ok {
			return "", fmt.Errorf("%s does not advertise a grpc port", e.Service.Service)
		}
		port = p
	}
	return net.JoinHostPort(host, port), nil
}
