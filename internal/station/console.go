package station

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/canline/labelstation/internal/scale"
	"github.com/canline/labelstation/internal/types"
)

// Console is the line-oriented operator front-end. It is a thin driver of
// the controller: presentation only, no transactional logic. Every typed
// rune feeds the secret matcher, so the mode toggle works anywhere in the
// session, exactly like the keystroke listener it replaces.
type Console struct {
	ctrl *Controller
	in   *bufio.Reader
	out  io.Writer

	expiryYears int

	weight      atomic.Int64
	scaleOnline atomic.Bool
}

// NewConsole wires the operator console around a loaded controller.
func NewConsole(ctrl *Controller, in io.Reader, out io.Writer, expiryYears int) *Console {
	if expiryYears <= 0 {
		expiryYears = 2
	}
	return &Console{
		ctrl:        ctrl,
		in:          bufio.NewReader(in),
		out:         out,
		expiryYears: expiryYears,
	}
}

// SetWeight receives scale readings; last value wins.
func (c *Console) SetWeight(grams int) {
	c.weight.Store(int64(grams))
}

// SetScaleStatus receives scale connection transitions.
func (c *Console) SetScaleStatus(s scale.Status) {
	c.scaleOnline.Store(s == scale.StatusConnected)
}

// Run drives print transactions until EOF or ctx cancellation.
func (c *Console) Run(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		keep, err := c.oneTransaction(ctx)
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
		if !keep {
			// Full reset: back to NORMAL mode, counter and catalog fresh.
			if err := c.ctrl.Reset(ctx); err != nil {
				return err
			}
		}
	}
}

// oneTransaction walks the operator through one label and reports whether
// the current configuration should be kept for the next unit.
func (c *Console) oneTransaction(ctx context.Context) (keep bool, err error) {
	c.printHeader()

	brand, err := c.selectBrand()
	if err != nil {
		return false, err
	}
	product, err := c.selectProduct(brand)
	if err != nil {
		return false, err
	}

	req := types.LabelRequest{
		BrandID:   brand.ID,
		ProductID: product.ID,
	}

	now := time.Now()
	req.ProducedOn = now.Format("2006-01-02")
	req.ExpiresOn = now.AddDate(c.expiryYears, 0, 0).Format("2006-01-02")

	for {
		req.Lot, err = c.promptLot()
		if err != nil {
			return false, err
		}
		req.WeightGrams, err = c.promptWeight()
		if err != nil {
			return false, err
		}

		keep, retry, err := c.submit(ctx, &req)
		if err != nil {
			return false, err
		}
		if retry {
			continue
		}
		return keep, nil
	}
}

// submit runs the transaction and walks the outcome branches.
// retry=true loops back to the lot/weight prompts with the same brand and
// product selection.
func (c *Console) submit(ctx context.Context, req *types.LabelRequest) (keep, retry bool, err error) {
	out, err := c.ctrl.SubmitPrint(ctx, *req)
	if err != nil {
		// Validation and store failures are reported and re-prompted,
		// never fatal to the session.
		fmt.Fprintf(c.out, "\n!! %v\n", err)
		return false, true, nil
	}

	if out.Kind == OutcomePrinterMissing {
		keep, retry, err = c.printerMissingPrompt(ctx, out)
		return keep, retry, err
	}

	fmt.Fprintf(c.out, "\n%s\n", out.Message)
	return c.continuationPrompt()
}

// printerMissingPrompt offers the two remediations: reload and retry, or
// activate emergency mode with the operator secret and resubmit the same
// request, which produces the identical writes the offline branch would.
func (c *Console) printerMissingPrompt(ctx context.Context, out Outcome) (keep, retry bool, err error) {
	fmt.Fprintf(c.out, "\n%s\n", out.Message)
	fmt.Fprint(c.out, "[r] retry  [e] activate emergency mode: ")
	choice, err := c.readLine()
	if err != nil {
		return false, false, err
	}

	if strings.TrimSpace(strings.ToLower(choice)) != "e" {
		return false, true, nil
	}

	fmt.Fprint(c.out, "Emergency secret: ")
	typed, err := c.readLine()
	if err != nil {
		return false, false, err
	}
	if err := c.ctrl.ActivateEmergency(strings.TrimSpace(typed)); err != nil {
		fmt.Fprintf(c.out, "!! %v\n", err)
		return false, true, nil
	}

	resubmitted, err := c.ctrl.SubmitPrint(ctx, out.Request)
	if err != nil {
		fmt.Fprintf(c.out, "!! %v\n", err)
		return false, true, nil
	}
	fmt.Fprintf(c.out, "\n%s\n", resubmitted.Message)
	return c.continuationPrompt()
}

// continuationPrompt presents exactly two choices: keep the configuration
// (weight clears, print another unit of the same product/brand/lot setup)
// or fully reset.
func (c *Console) continuationPrompt() (keep, retry bool, err error) {
	if c.ctrl.Mode() == types.ModeOffline {
		fmt.Fprint(c.out, "[k] continue offline  [n] leave emergency mode and reset: ")
	} else {
		fmt.Fprint(c.out, "[k] keep and continue  [n] new configuration: ")
	}
	choice, err := c.readLine()
	if err != nil {
		return false, false, err
	}
	if strings.TrimSpace(strings.ToLower(choice)) == "k" {
		c.weight.Store(0)
		return true, true, nil
	}
	return false, false, nil
}

func (c *Console) printHeader() {
	fmt.Fprintf(c.out, "\n=== Label station — mode %s — next can %d ===\n",
		c.ctrl.Mode(), c.ctrl.NextCanID())
	if c.scaleOnline.Load() {
		fmt.Fprintln(c.out, "scale: connected")
	} else {
		fmt.Fprintln(c.out, "scale: offline (enter weight manually)")
	}
}

func (c *Console) selectBrand() (types.Brand, error) {
	brands := sortedBrands(c.ctrl.Brands())
	fmt.Fprintln(c.out, "\nBrands:")
	for i, b := range brands {
		fmt.Fprintf(c.out, "  %d. %s\n", i+1, b.Name)
	}
	for {
		fmt.Fprint(c.out, "Brand: ")
		line, err := c.readLine()
		if err != nil {
			return types.Brand{}, err
		}
		if n, err := strconv.Atoi(strings.TrimSpace(line)); err == nil && n >= 1 && n <= len(brands) {
			return brands[n-1], nil
		}
		fmt.Fprintln(c.out, "!! pick a listed brand")
	}
}

func (c *Console) selectProduct(brand types.Brand) (types.Product, error) {
	var products []types.Product
	for _, p := range c.ctrl.Products() {
		if p.SoldUnder(brand.ID) {
			products = append(products, p)
		}
	}
	sort.Slice(products, func(i, j int) bool { return products[i].Name < products[j].Name })

	fmt.Fprintf(c.out, "\nProducts under %s:\n", brand.Name)
	for i, p := range products {
		fmt.Fprintf(c.out, "  %d. %s\n", i+1, p.Name)
	}
	for {
		fmt.Fprint(c.out, "Product: ")
		line, err := c.readLine()
		if err != nil {
			return types.Product{}, err
		}
		if n, err := strconv.Atoi(strings.TrimSpace(line)); err == nil && n >= 1 && n <= len(products) {
			return products[n-1], nil
		}
		fmt.Fprintln(c.out, "!! pick a listed product")
	}
}

func (c *Console) promptLot() (string, error) {
	for {
		fmt.Fprint(c.out, "Lot (5 digits): ")
		line, err := c.readLine()
		if err != nil {
			return "", err
		}
		lot := strings.TrimSpace(line)
		if lotPattern.MatchString(lot) {
			return lot, nil
		}
		fmt.Fprintln(c.out, "!! lot must be exactly 5 digits")
	}
}

func (c *Console) promptWeight() (int, error) {
	for {
		current := int(c.weight.Load())
		fmt.Fprintf(c.out, "Weight [%d g, enter to accept]: ", current)
		line, err := c.readLine()
		if err != nil {
			return 0, err
		}
		line = strings.TrimSpace(line)
		if line == "" {
			return current, nil
		}
		if grams, err := strconv.Atoi(line); err == nil && grams >= 0 {
			return grams, nil
		}
		fmt.Fprintln(c.out, "!! weight must be a non-negative integer of grams")
	}
}

// readLine reads one operator line and feeds every rune, newline included,
// to the secret matcher.
func (c *Console) readLine() (string, error) {
	line, err := c.in.ReadString('\n')
	for _, r := range line {
		c.ctrl.FeedKey(r)
	}
	if err != nil {
		if err == io.EOF && line != "" {
			return strings.TrimRight(line, "\r\n"), nil
		}
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func sortedBrands(m map[string]types.Brand) []types.Brand {
	brands := make([]types.Brand, 0, len(m))
	for _, b := range m {
		brands = append(brands, b)
	}
	sort.Slice(brands, func(i, j int) bool { return brands[i].Name < brands[j].Name })
	return brands
}
