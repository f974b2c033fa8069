package middleware

import (
	"context"
	"fmt"
	"os"
	"strings"

	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
)

const namespaceFile = "/var/run/secrets/kubernetes.io/serviceaccount/namespace"

// ServiceInfo identifies this process to the tracing and profiling backends.
type ServiceInfo struct {
	Name      string
	Namespace string
}

// DetectServiceInfo resolves the service identity. The name comes from
// OTEL_SERVICE_NAME, else the configured name, else the pod name with its
// replicaset and pod hashes stripped. The namespace comes from
// OTEL_RESOURCE_ATTRIBUTES, the mounted service account, or POD_NAMESPACE.
func DetectServiceInfo(configured string) ServiceInfo {
	info := ServiceInfo{
		Name:      os.Getenv("OTEL_SERVICE_NAME"),
		Namespace: "default",
	}
	if info.Name == "" {
		info.Name = configured
	}
	if info.Name == "" {
		info.Name = serviceFromPodName()
	}

	for _, attr := range strings.Split(os.Getenv("OTEL_RESOURCE_ATTRIBUTES"), ",") {
		if k, v, ok := strings.Cut(attr, "="); ok && k == "service.namespace" && v != "" {
			info.Namespace = v
			return info
		}
	}
	if data, err := os.ReadFile(namespaceFile); err == nil {
		info.Namespace = strings.TrimSpace(string(data))
		return info
	}
	if ns := os.Getenv("POD_NAMESPACE"); ns != "" {
		info.Namespace = ns
	}
	return info
}

// serviceFromPodName turns "user-admin-75c98b4b9c-kdv2n" into "user-admin".
func serviceFromPodName() string {
	pod := os.Getenv("POD_NAME")
	if pod == "" {
		pod, _ = os.Hostname()
	}
	parts := strings.Split(pod, "-")
	switch {
	case pod == "":
		return "unknown-service"
	case len(parts) >= 3:
		return strings.Join(parts[:len(parts)-2], "-")
	default:
		return parts[0]
	}
}

// CreateResource describes the process for exported telemetry. On partial
// detection failure a minimal resource is returned alongside the error.
func CreateResource(ctx context.Context, info ServiceInfo, version string) (*resource.Resource, error) {
	opts := []resource.Option{
		resource.WithFromEnv(),
		resource.WithProcess(),
		resource.WithOS(),
		resource.WithContainer(),
		resource.WithHost(),
		resource.WithAttributes(
			semconv.ServiceNameKey.String(info.Name),
			semconv.ServiceNamespaceKey.String(info.Namespace),
			semconv.ServiceVersionKey.String(version),
		),
	}

	res, err := resource.New(ctx, opts...)
	if err != nil {
		return resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceNameKey.String(info.Name),
			semconv.ServiceNamespaceKey.String(info.Namespace),
		), fmt.Errorf("resource detection partial failure: %w", err)
	}
	return res, nil
}
