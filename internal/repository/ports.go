package repository

import "sabohub/internal/services"

var (
	_ services.CompanyRepository      = (*CompanyRepository)(nil)
	_ services.UserRepository         = (*UserRepository)(nil)
	_ services.CustomerRepository     = (*CustomerRepository)(nil)
	_ services.RouteRepository        = (*RouteRepository)(nil)
	_ services.OptimizationRepository = (*OptimizationRepository)(nil)
	_ services.JourneyRepository      = (*JourneyRepository)(nil)
	_ services.LocationRepository     = (*LocationRepository)(nil)
)
