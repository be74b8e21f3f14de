package scan

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/deploymenttheory/go-dexscan/internal/resolver"
	"github.com/deploymenttheory/go-dexscan/internal/scanner"
	"github.com/deploymenttheory/go-dexscan/pkg/app"
	"github.com/deploymenttheory/go-dexscan/pkg/receiver"
	"github.com/deploymenttheory/go-dexscan/pkg/services"
)

// Handle processes a discovery request
func Handle(ctx *app.Context, factory *services.ServiceFactory, req *Request) (*Response, error) {
	startTime := time.Now()

	// 1. Validate request
	if err := req.Validate(); err != nil {
		return nil, err
	}

	scanID := uuid.NewString()
	ctx.Logger.Debug().Str("scan_id", scanID).Str("identity", req.Identity).Strs("namespaces", req.Namespaces).Msg("Starting scan")
	ctx.Log(fmt.Sprintf("Scanning %s for: %s", req.Identity, strings.Join(req.Namespaces, ", ")))
	ctx.Progress("Resolving containers...", 10)

	// 2. Wire services
	discovery, err := factory.DiscoveryService()
	if err != nil {
		return nil, app.NewError(app.ErrCodeInternal, "failed to initialize services", err)
	}
	sc, err := factory.Scanner()
	if err != nil {
		return nil, app.NewError(app.ErrCodeInternal, "failed to initialize services", err)
	}

	// 3. Scan, with the generated loader namespace riding along when requested
	namespaces := req.Namespaces
	if req.Loaders {
		namespaces = append(slices.Clip(namespaces), receiver.GeneratedPackage)
	}

	ctx.Progress("Scanning containers...", 30)
	result, err := discovery.Discover(ctx.Context, req.Identity, namespaces)
	if err != nil {
		return nil, mapError(err)
	}

	response := buildResponse(req, result)
	response.ScanID = scanID
	response.Strategy = sc.Strategy().String()

	// 4. Optional loader discovery
	if req.Loaders {
		ctx.Progress("Locating receiver loaders...", 80)
		response.Loaders = receiver.LoaderClassNames(result.Namespace(receiver.GeneratedPackage))
	}

	for _, c := range result.Failed() {
		ctx.Error(fmt.Sprintf("container %s could not be read: %v", c.Path, c.Err))
	}

	response.Duration = time.Since(startTime)
	ctx.Progress("Complete", 100)
	ctx.Log(fmt.Sprintf("Scan completed: found %d classes in %v", response.TotalClasses, response.Duration))

	return response, nil
}

// HandleResolve processes a container resolution request
func HandleResolve(ctx *app.Context, factory *services.ServiceFactory, req *ResolveRequest) (*ResolveResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	discovery, err := factory.DiscoveryService()
	if err != nil {
		return nil, app.NewError(app.ErrCodeInternal, "failed to initialize services", err)
	}

	info, err := discovery.Resolve(ctx.Context, req.Identity)
	if err != nil {
		return nil, mapError(err)
	}

	return &ResolveResponse{
		Identity:   info.Identity,
		Native:     info.Native,
		Containers: info.Containers,
	}, nil
}

// HandleClasses processes a single container listing request
func HandleClasses(ctx *app.Context, factory *services.ServiceFactory, req *ClassesRequest) (*ClassesResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	containers, err := factory.ContainerService()
	if err != nil {
		return nil, app.NewError(app.ErrCodeInternal, "failed to initialize services", err)
	}

	info, err := containers.Describe(req.Path)
	if err != nil {
		return nil, app.NewError(app.ErrCodeContainerAccess, "failed to open container "+req.Path, err)
	}
	names, err := containers.Classes(req.Path)
	if err != nil {
		return nil, app.NewError(app.ErrCodeContainerAccess, "failed to read container "+req.Path, err)
	}

	response := &ClassesResponse{
		Path:     info.Path,
		Loader:   info.Loader,
		DexCount: info.DexCount,
		Total:    len(names),
	}
	for _, name := range names {
		if req.Prefix == "" || strings.HasPrefix(name, req.Prefix) {
			response.Classes = append(response.Classes, name)
		}
	}

	ctx.Log(fmt.Sprintf("Listed %d of %d classes in %s", len(response.Classes), response.Total, req.Path))
	return response, nil
}

// buildResponse flattens a scan result into sorted, serializable form
func buildResponse(req *Request, result *scanner.Result) *Response {
	response := &Response{
		Identity:  req.Identity,
		AllFailed: result.AllFailed(),
	}

	total := scanner.NewClassSet()
	seen := make(map[string]struct{}, len(req.Namespaces))
	for _, ns := range req.Namespaces {
		if _, dup := seen[ns]; dup {
			continue
		}
		seen[ns] = struct{}{}

		set := result.Namespace(ns)
		total.Union(set)
		classes := set.Sorted()
		response.Namespaces = append(response.Namespaces, NamespaceResult{
			Namespace: ns,
			Count:     len(classes),
			Classes:   classes,
		})
	}
	response.TotalClasses = total.Len()

	for _, c := range result.Containers {
		cr := ContainerResult{
			Path:    c.Path,
			Classes: c.Classes,
			Matched: c.Matched,
		}
		if c.Err != nil {
			cr.Error = c.Err.Error()
		}
		response.Containers = append(response.Containers, cr)
	}

	return response
}

// mapError converts service errors into application errors
func mapError(err error) error {
	var missing *resolver.MissingContainerError
	if errors.As(err, &missing) {
		return app.NewError(app.ErrCodeMissingContainer, "application containers are incomplete", err)
	}
	var identity *resolver.IdentityResolutionError
	if errors.As(err, &identity) {
		return app.NewError(app.ErrCodeIdentityNotFound, "application not found", err)
	}
	return app.NewError(app.ErrCodeInternal, "scan failed", err)
}
