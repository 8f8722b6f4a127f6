// Package app composes the microsite API from its stores and services.
//
//	internal/app/
//	├── application.go   # service wiring and lifecycle
//	├── domain/          # user and microsite models, validation
//	├── storage/         # store interfaces, memory/ and postgres/ implementations
//	├── services/        # users, auth and microsites business rules
//	├── cache/           # memory and redis caches for public lookups
//	├── media/           # ImageKit and local upload backends
//	├── httpapi/         # REST handlers and routing
//	├── runtime/         # config-driven bootstrap and HTTP server lifecycle
//	├── seed/            # default admin and microsite provisioning
//	├── system/          # lifecycle manager
//	└── metrics/         # prometheus collectors
//
// Dependencies flow downwards: httpapi calls services, services call storage
// interfaces, and only runtime knows which implementations are in use.
package app
