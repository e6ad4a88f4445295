package crypto

import (
	"bytes"
	"context"
	"io"
	"math"
	"net/http"
	"strconv"

	"github.com/Jeffail/gabs"
	"github.com/pkg/errors"
	"github.com/sethgrid/pester"
	"github.com/xgctrenches/xgcbot/helpers"
	"github.com/xgctrenches/xgcbot/metrics"
)

const (
	XGCIssuer = "rM4qkDcRyMDks5v1hYakKnLbTeppmgCpM1"
	// USDIssuer is Bitstamp's gateway
	USDIssuer = "rvYAfWj5gh67oV6fW32ZzP3Aw4Eubs59B"

	dropsPerXRP = 1000000
	bookLimit   = 10
)

// ErrNoOffers means the order book had no offer a price can be read from
var ErrNoOffers = errors.New("no usable offer in the order book")

// Asset is one side of an order book. XRP has no issuer.
type Asset struct {
	Currency string
	Issuer   string
}

func (a Asset) json() map[string]interface{} {
	out := map[string]interface{}{"currency": a.Currency}
	if a.Issuer != "" {
		out["issuer"] = a.Issuer
	}
	return out
}

// Book names an order book by what the taker gets and what they pay.
type Book struct {
	Gets Asset
	Pays Asset
}

var (
	// XGCBook prices XGC in XRP
	XGCBook = Book{
		Gets: Asset{Currency: "XRP"},
		Pays: Asset{Currency: "XGC", Issuer: XGCIssuer},
	}
	// USDBook prices XRP in USD
	USDBook = Book{
		Gets: Asset{Currency: "USD", Issuer: USDIssuer},
		Pays: Asset{Currency: "XRP"},
	}
)

// Quote is the best offer of a book. Amounts are in whole units, drops are
// already converted to XRP.
type Quote struct {
	Gets  float64
	Pays  float64
	Price float64
}

// Quoter reads the best offer of an order book
type Quoter interface {
	BestOffer(ctx context.Context, book Book) (Quote, error)
}

// Ledger talks JSON-RPC to a rippled node
type Ledger struct {
	endpoint string
	client   *pester.Client
}

func NewLedger(endpoint string, client *pester.Client) *Ledger {
	return &Ledger{
		endpoint: endpoint,
		client:   client,
	}
}

func (l *Ledger) BestOffer(ctx context.Context, book Book) (Quote, error) {
	metrics.PriceLookups.Add(1)

	body, err := bookOffersRequest(book)
	if err != nil {
		return Quote{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, l.endpoint, bytes.NewReader(body))
	if err != nil {
		return Quote{}, errors.Wrap(err, "building ledger request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", helpers.DEFAULT_UA)

	resp, err := l.client.Do(req)
	if err != nil {
		return Quote{}, helpers.Upstream(0, errors.Wrap(err, "querying ledger"))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Quote{}, helpers.Upstream(resp.StatusCode, errors.Errorf("ledger answered %s", resp.Status))
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return Quote{}, helpers.Upstream(0, errors.Wrap(err, "reading ledger response"))
	}

	return parseBestOffer(raw)
}

func bookOffersRequest(book Book) ([]byte, error) {
	params := gabs.New()
	params.Set(book.Gets.json(), "taker_gets")
	params.Set(book.Pays.json(), "taker_pays")
	params.Set(bookLimit, "limit")

	payload := gabs.New()
	payload.Set("book_offers", "method")
	if _, err := payload.Array("params"); err != nil {
		return nil, errors.Wrap(err, "building ledger request")
	}
	if err := payload.ArrayAppend(params.Data(), "params"); err != nil {
		return nil, errors.Wrap(err, "building ledger request")
	}
	return payload.Bytes(), nil
}

func parseBestOffer(raw []byte) (Quote, error) {
	json, err := gabs.ParseJSON(raw)
	if err != nil {
		return Quote{}, ErrNoOffers
	}

	if status, ok := json.Path("result.status").Data().(string); ok && status == "error" {
		reason, _ := json.Path("result.error").Data().(string)
		return Quote{}, helpers.Upstream(0, errors.Errorf("ledger error: %s", reason))
	}

	offers, err := json.Path("result.offers").Children()
	if err != nil || len(offers) == 0 {
		return Quote{}, ErrNoOffers
	}

	gets, ok := amount(offers[0].Path("TakerGets"))
	if !ok {
		return Quote{}, ErrNoOffers
	}
	pays, ok := amount(offers[0].Path("TakerPays"))
	if !ok {
		return Quote{}, ErrNoOffers
	}

	if pays == 0 || gets == 0 {
		return Quote{}, ErrNoOffers
	}
	price := gets / pays
	if math.IsInf(price, 0) || math.IsNaN(price) {
		return Quote{}, ErrNoOffers
	}

	return Quote{Gets: gets, Pays: pays, Price: price}, nil
}

// amount reads a ledger amount: a string of drops for XRP, an object with a
// value for issued currencies.
func amount(c *gabs.Container) (float64, bool) {
	switch data := c.Data().(type) {
	case string:
		drops, err := strconv.ParseFloat(data, 64)
		if err != nil {
			return 0, false
		}
		return drops / dropsPerXRP, validAmount(drops)
	case map[string]interface{}:
		var value float64
		switch v := data["value"].(type) {
		case string:
			parsed, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return 0, false
			}
			value = parsed
		case float64:
			value = v
		default:
			return 0, false
		}
		return value, validAmount(value)
	}
	return 0, false
}

func validAmount(v float64) bool {
	return v > 0 && !math.IsInf(v, 0) && !math.IsNaN(v)
}
