package browser

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/chromedp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/chatprobe/internal/common"
)

// fakePage answers queries from a selector -> nodes table and records actions
type fakePage struct {
	nodes      map[string][]cdp.NodeID
	appearAt   map[string]int // Selector becomes visible from this query round
	queryErr   map[string]error
	queries    []string
	round      map[string]int
	filled     map[cdp.NodeID]string
	clicked    []cdp.NodeID
	actions    []string
	fillErr    error
	clickErr   error
	onFillSeed map[string][]cdp.NodeID // Nodes that appear once text is typed
}

func newFakePage() *fakePage {
	return &fakePage{
		nodes:      map[string][]cdp.NodeID{},
		appearAt:   map[string]int{},
		queryErr:   map[string]error{},
		round:      map[string]int{},
		filled:     map[cdp.NodeID]string{},
		onFillSeed: map[string][]cdp.NodeID{},
	}
}

func (p *fakePage) Query(locator Locator) ([]cdp.NodeID, error) {
	p.queries = append(p.queries, locator.String())
	p.round[locator.Selector]++
	if err := p.queryErr[locator.Selector]; err != nil {
		return nil, err
	}
	if at, ok := p.appearAt[locator.Selector]; ok && p.round[locator.Selector] < at {
		return nil, nil
	}
	return p.nodes[locator.Selector], nil
}

func (p *fakePage) Fill(node cdp.NodeID, text string) error {
	if p.fillErr != nil {
		return p.fillErr
	}
	p.filled[node] = text
	p.actions = append(p.actions, "fill")
	for selector, nodes := range p.onFillSeed {
		p.nodes[selector] = nodes
	}
	return nil
}

func (p *fakePage) Click(node cdp.NodeID) error {
	if p.clickErr != nil {
		return p.clickErr
	}
	p.clicked = append(p.clicked, node)
	p.actions = append(p.actions, "click")
	return nil
}

func fastDriverConfig() common.DriverConfig {
	return common.DriverConfig{LocateTimeout: "50ms", PollInterval: "5ms"}
}

func TestDriverLocate_PriorityOrder(t *testing.T) {
	page := newFakePage()
	page.nodes[`textarea`] = []cdp.NodeID{30}
	page.nodes[`input[placeholder*="message" i]`] = []cdp.NodeID{20}

	driver := newDriver(page, fastDriverConfig(), arbor.NewLogger())

	node, err := driver.LocateInput(context.Background())
	require.NoError(t, err)
	assert.Equal(t, cdp.NodeID(20), node, "labeled input wins over the generic textarea")
	assert.Equal(t, []string{`textarea[placeholder*="message" i]`, `input[placeholder*="message" i]`}, page.queries)
}

func TestDriverLocate_FirstNodeOfMatch(t *testing.T) {
	page := newFakePage()
	page.nodes[`button[type="submit"]`] = []cdp.NodeID{7, 8, 9}

	driver := newDriver(page, fastDriverConfig(), arbor.NewLogger())

	node, err := driver.LocateSend(context.Background())
	require.NoError(t, err)
	assert.Equal(t, cdp.NodeID(7), node)
}

func TestDriverLocate_PollsUntilControlAppears(t *testing.T) {
	page := newFakePage()
	page.nodes[`textarea`] = []cdp.NodeID{5}
	page.appearAt[`textarea`] = 3

	config := common.DriverConfig{LocateTimeout: "2s", PollInterval: "1ms"}
	driver := newDriver(page, config, arbor.NewLogger())

	node, err := driver.LocateInput(context.Background())
	require.NoError(t, err)
	assert.Equal(t, cdp.NodeID(5), node)
	assert.Equal(t, 3, page.round[`textarea`])
}

func TestDriverLocate_NotFound(t *testing.T) {
	page := newFakePage()
	page.queryErr[`textarea`] = errors.New("node detached")

	driver := newDriver(page, fastDriverConfig(), arbor.NewLogger())

	_, err := driver.LocateInput(context.Background())
	require.Error(t, err)
	assert.True(t, IsElementNotFound(err))

	var notFound *ElementNotFoundError
	require.True(t, errors.As(err, &notFound))
	assert.Equal(t, "chat input", notFound.Role)
	assert.Len(t, notFound.Candidates, len(DefaultInputLocators))
}

func TestDriverLocate_ContextCancelled(t *testing.T) {
	page := newFakePage()
	config := common.DriverConfig{LocateTimeout: "10s", PollInterval: "1s"}
	driver := newDriver(page, config, arbor.NewLogger())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := driver.LocateSend(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDriverSubmit(t *testing.T) {
	page := newFakePage()
	page.nodes[`textarea[placeholder*="message" i]`] = []cdp.NodeID{11}
	// The send button only renders once the input has text
	page.onFillSeed[`button[aria-label*="send" i]`] = []cdp.NodeID{12}

	driver := newDriver(page, fastDriverConfig(), arbor.NewLogger())

	err := driver.Submit(context.Background(), "Show me all Facebook Ads products")
	require.NoError(t, err)

	assert.Equal(t, "Show me all Facebook Ads products", page.filled[11])
	assert.Equal(t, []cdp.NodeID{12}, page.clicked)
	assert.Equal(t, []string{"fill", "click"}, page.actions)
}

func TestDriverSubmit_MissingSendControl(t *testing.T) {
	page := newFakePage()
	page.nodes[`textarea`] = []cdp.NodeID{1}

	driver := newDriver(page, fastDriverConfig(), arbor.NewLogger())

	err := driver.Submit(context.Background(), "hello")
	assert.True(t, IsElementNotFound(err))
	assert.Empty(t, page.clicked)
}

func TestDriverSubmit_FillError(t *testing.T) {
	page := newFakePage()
	page.nodes[`textarea`] = []cdp.NodeID{1}
	page.fillErr = errors.New("element is not focusable")

	driver := newDriver(page, fastDriverConfig(), arbor.NewLogger())

	err := driver.Submit(context.Background(), "hello")
	require.Error(t, err)
	assert.False(t, IsElementNotFound(err))
	assert.Contains(t, err.Error(), "not focusable")
}

func TestDriverSubmit_DeadTabIsSessionError(t *testing.T) {
	page := newFakePage()
	for _, locator := range DefaultInputLocators {
		page.queryErr[locator.Selector] = context.Canceled
	}

	config := common.DriverConfig{LocateTimeout: "10s", PollInterval: "1s"}
	driver := newDriver(page, config, arbor.NewLogger())

	start := time.Now()
	err := driver.Submit(context.Background(), "hello")
	require.Error(t, err)
	assert.Less(t, time.Since(start), time.Second, "a dead tab must not wait out the locate timeout")

	assert.True(t, IsSessionError(err))
	assert.False(t, IsElementNotFound(err))
	assert.ErrorIs(t, err, context.Canceled)

	var sessionErr *SessionError
	require.True(t, errors.As(err, &sessionErr))
	assert.Equal(t, "locate", sessionErr.Op)
	assert.Len(t, page.queries, 1)
}

func TestDriverSubmit_ActionOnDeadTab(t *testing.T) {
	tests := []struct {
		name     string
		fillErr  error
		clickErr error
		wantOp   string
	}{
		{"fill cancelled", context.Canceled, nil, "fill"},
		{"click invalid context", nil, chromedp.ErrInvalidContext, "click"},
		{"click closed target", nil, chromedp.ErrInvalidTarget, "click"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page := newFakePage()
			page.nodes[`textarea`] = []cdp.NodeID{1}
			page.nodes[`button[type="submit"]`] = []cdp.NodeID{2}
			page.fillErr = tt.fillErr
			page.clickErr = tt.clickErr

			driver := newDriver(page, fastDriverConfig(), arbor.NewLogger())

			err := driver.Submit(context.Background(), "hello")
			var sessionErr *SessionError
			require.True(t, errors.As(err, &sessionErr), "got %v", err)
			assert.Equal(t, tt.wantOp, sessionErr.Op)
		})
	}
}

func TestDriverSubmit_ClickTimeoutIsNotSessionError(t *testing.T) {
	page := newFakePage()
	page.nodes[`textarea`] = []cdp.NodeID{1}
	page.nodes[`button[type="submit"]`] = []cdp.NodeID{2}
	page.clickErr = context.DeadlineExceeded

	driver := newDriver(page, fastDriverConfig(), arbor.NewLogger())

	err := driver.Submit(context.Background(), "hello")
	require.Error(t, err)
	assert.False(t, IsSessionError(err))
	assert.Contains(t, err.Error(), "failed to click send control")
}

func TestDriverConfiguredSelectors(t *testing.T) {
	page := newFakePage()
	page.nodes[`#composer`] = []cdp.NodeID{3}

	config := fastDriverConfig()
	config.InputSelectors = []string{"#composer"}
	driver := newDriver(page, config, arbor.NewLogger())

	node, err := driver.LocateInput(context.Background())
	require.NoError(t, err)
	assert.Equal(t, cdp.NodeID(3), node)
}

func TestParseLocator(t *testing.T) {
	tests := []struct {
		name     string
		selector string
		want     Locator
	}{
		{"css", `button[type="submit"]`, Locator{Selector: `button[type="submit"]`}},
		{"xpath prefix", `xpath://button`, Locator{Selector: `//button`, XPath: true}},
		{"bare xpath", `//textarea`, Locator{Selector: `//textarea`, XPath: true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseLocator(tt.selector))
		})
	}
}
