// Package marketplace defines the port between the stock engine and the
// external marketplaces it keeps in sync (Wildberries, Ozon, Yandex Market).
//
// Each marketplace is reached through one Adapter implementation. The engine
// never inspects the concrete adapter type: the set of adapters is chosen by
// configuration and every platform difference (auth headers, paging, payload
// shapes, identifier schemes) stays behind the Adapter contract.
package marketplace
