// Package cbr fetches the Central Bank of Russia key rate over its SOAP
// service. The service layer uses it to suggest an annual rate for loans
// created without an explicit one.
package cbr

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/beevik/etree"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/mvoronin/finbudget/internal/config"
)

// cacheTTL bounds how often the bank is queried; the key rate changes a few
// times a year at most.
const cacheTTL = time.Hour

// Client handles integration with the Central Bank of Russia
type Client struct {
	url    string
	margin decimal.Decimal
	client *http.Client
	log    *logrus.Logger

	mu       sync.Mutex
	cached   decimal.Decimal
	cachedAt time.Time
}

// NewClient initializes a new CBR client
func NewClient(cfg *config.Config, log *logrus.Logger) *Client {
	return &Client{
		url:    cfg.CBRURL,
		margin: decimal.RequireFromString(cfg.RateMargin),
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
		log: log,
	}
}

// SuggestedRate returns the current key rate plus the configured margin, as
// an annual percentage. Implements service.RateSource.
func (c *Client) SuggestedRate(ctx context.Context) (decimal.Decimal, error) {
	keyRate, err := c.KeyRate(ctx)
	if err != nil {
		return decimal.Zero, err
	}
	rate := keyRate.Add(c.margin)
	c.log.Infof("Suggested annual rate %s%% (key rate %s%% + margin %s%%)", rate, keyRate, c.margin)
	return rate, nil
}

// KeyRate retrieves the latest key rate from the CBR, caching it briefly.
func (c *Client) KeyRate(ctx context.Context) (decimal.Decimal, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.cachedAt.IsZero() && time.Since(c.cachedAt) < cacheTTL {
		return c.cached, nil
	}

	body, err := c.fetch(ctx)
	if err != nil {
		return decimal.Zero, err
	}
	rate, err := parseKeyRate(body)
	if err != nil {
		return decimal.Zero, err
	}

	c.cached = rate
	c.cachedAt = time.Now()
	return rate, nil
}

func (c *Client) fetch(ctx context.Context) ([]byte, error) {
	to := time.Now()
	from := to.AddDate(0, 0, -30)
	envelope := fmt.Sprintf(`<?xml version="1.0" encoding="utf-8"?>
		<soap12:Envelope xmlns:soap12="http://www.w3.org/2003/05/soap-envelope">
			<soap12:Body>
				<KeyRate xmlns="http://web.cbr.ru/">
					<fromDate>%s</fromDate>
					<ToDate>%s</ToDate>
				</KeyRate>
			</soap12:Body>
		</soap12:Envelope>`, from.Format("2006-01-02"), to.Format("2006-01-02"))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewBufferString(envelope))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/soap+xml; charset=utf-8")
	req.Header.Set("SOAPAction", "http://web.cbr.ru/KeyRate")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	c.log.Debugf("CBR XML response: %s", body)
	return body, nil
}

// parseKeyRate extracts the most recent rate from the KeyRate diffgram. The
// first KR element carries the latest value.
func parseKeyRate(raw []byte) (decimal.Decimal, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(raw); err != nil {
		return decimal.Zero, fmt.Errorf("failed to parse XML: %w", err)
	}

	krElements := doc.FindElements("//diffgram/KeyRate/KR")
	if len(krElements) == 0 {
		return decimal.Zero, fmt.Errorf("no key rate data found in XML")
	}
	rateElement := krElements[0].FindElement("./Rate")
	if rateElement == nil {
		return decimal.Zero, fmt.Errorf("rate element not found in XML")
	}

	rate, err := decimal.NewFromString(rateElement.Text())
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to parse rate %q: %w", rateElement.Text(), err)
	}
	return rate, nil
}
