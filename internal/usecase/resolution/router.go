package resolution

import "github.com/finview/finview-backend/internal/domain"

// Router picks the provider client that serves a symbol's instrument
// class. The classification rules themselves live in the domain package;
// this is only the table from class to client.
type Router struct {
	clients  map[domain.Instrument]domain.ProviderClient
	fallback domain.ProviderClient
}

// NewRouter builds the default routing table: crypto pairs go to the
// crypto client, everything else (equities, ETFs, indices, commodity
// futures) to the market client.
func NewRouter(market, crypto domain.ProviderClient) *Router {
	return &Router{
		clients: map[domain.Instrument]domain.ProviderClient{
			domain.InstrumentEquity:    market,
			domain.InstrumentETF:       market,
			domain.InstrumentIndex:     market,
			domain.InstrumentCommodity: market,
			domain.InstrumentCrypto:    crypto,
		},
		fallback: market,
	}
}

// ClientFor returns the client serving the symbol.
func (r *Router) ClientFor(symbol string) domain.ProviderClient {
	if client, ok := r.clients[domain.ClassifySymbol(symbol)]; ok {
		return client
	}
	return r.fallback
}
