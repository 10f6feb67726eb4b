package shopctl

import (
	"bufio"
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"

	"github.com/shopease/shopease/internal/common/shoperrors"
	"github.com/shopease/shopease/internal/shop/model"
	"github.com/shopease/shopease/internal/shop/service"
)

// errEndOfInput stops the shell when In is exhausted.
var errEndOfInput = errors.New("end of input")

const menuRule = "========================================"

// Shell runs the interactive shop on In and Out until the user exits, In ends or ctx is cancelled.
func (a *App) Shell(ctx context.Context) error {
	return a.withShop(ctx, func(s *shop) error {
		sh := &shell{
			app:     a,
			shop:    s,
			session: service.NewSession(s.products),
			in:      bufio.NewScanner(a.In),
			v:       view{a.Out},
		}
		err := sh.run(ctx)
		if errors.Is(err, errEndOfInput) {
			return nil
		}
		return err
	})
}

type shell struct {
	app     *App
	shop    *shop
	session *service.Session
	in      *bufio.Scanner
	v       view
}

func (sh *shell) run(ctx context.Context) error {
	titleColor.Fprintln(sh.v.w, "\nWelcome to ShopEase Console E-Commerce System!")
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		var (
			done bool
			err  error
		)
		if sh.session.IsAuthenticated() {
			err = sh.mainMenu(ctx)
		} else {
			done, err = sh.authMenu(ctx)
		}
		if err != nil || done {
			return err
		}
	}
}

func (sh *shell) menu(title string, options ...string) (int, error) {
	fmt.Fprintln(sh.v.w, "\n"+menuRule)
	fmt.Fprintln(sh.v.w, title)
	fmt.Fprintln(sh.v.w, menuRule)
	for i, option := range options {
		fmt.Fprintf(sh.v.w, "%d. %s\n", i+1, option)
	}
	fmt.Fprintln(sh.v.w, menuRule)
	line, err := sh.readLine("Choose an option: ")
	if err != nil {
		return 0, err
	}
	choice, err := strconv.Atoi(line)
	if err != nil || choice < 1 || choice > len(options) {
		errorColor.Fprintln(sh.v.w, "Invalid choice. Please try again.")
		return 0, nil
	}
	return choice, nil
}

// authMenu returns true once the user chooses to exit.
func (sh *shell) authMenu(ctx context.Context) (bool, error) {
	choice, err := sh.menu("AUTHENTICATION", "Login", "Register", "Exit")
	if err != nil {
		return false, err
	}
	switch choice {
	case 1:
		return false, sh.login(ctx)
	case 2:
		return false, sh.register(ctx)
	case 3:
		sh.v.message("Thank you for using ShopEase! Goodbye!")
		return true, nil
	}
	return false, nil
}

func (sh *shell) login(ctx context.Context) error {
	fmt.Fprintln(sh.v.w, "\nLOGIN")
	username, err := sh.readNonEmpty("Username: ")
	if err != nil {
		return err
	}
	password, err := sh.readNonEmpty("Password: ")
	if err != nil {
		return err
	}
	user, err := sh.shop.auth.Login(ctx, username, password)
	if err != nil {
		return sh.fail(err)
	}
	sh.session.Login(user)
	sh.v.success("Welcome back, %s!", user.Username)
	return nil
}

func (sh *shell) register(ctx context.Context) error {
	fmt.Fprintln(sh.v.w, "\nREGISTER")
	username, err := sh.readNonEmpty("Username: ")
	if err != nil {
		return err
	}
	email, err := sh.readNonEmpty("Email: ")
	if err != nil {
		return err
	}
	password, err := sh.readNonEmpty("Password: ")
	if err != nil {
		return err
	}
	user, err := sh.shop.auth.Register(ctx, username, email, password)
	if err != nil {
		return sh.fail(err)
	}
	sh.session.Login(user)
	sh.v.success("Registration successful! Welcome, %s!", user.Username)
	return nil
}

func (sh *shell) mainMenu(ctx context.Context) error {
	choice, err := sh.menu("MAIN MENU",
		"View All Products",
		"Search Products",
		"Cart Management",
		"Order History",
		"Bulk Product Operations",
		"Logout",
	)
	if err != nil {
		return err
	}
	switch choice {
	case 1:
		return sh.browse(ctx, "", sh.shop.products.Paginated)
	case 2:
		keyword, err := sh.readNonEmpty("\nEnter product name, category, or first letter: ")
		if err != nil {
			return err
		}
		return sh.browse(ctx, keyword, func(ctx context.Context, page int, pageSize int) ([]*model.Product, error) {
			return sh.shop.products.SearchPaginated(ctx, keyword, page, pageSize)
		})
	case 3:
		return sh.cartMenu(ctx)
	case 4:
		return sh.orderHistory(ctx)
	case 5:
		return sh.bulkMenu(ctx)
	case 6:
		sh.session.Logout()
		sh.v.success("Logged out successfully! See you next time!")
	}
	return nil
}

type pageFunc func(ctx context.Context, page int, pageSize int) ([]*model.Product, error)

// browse shows one page of products at a time. keyword is only used in messages.
func (sh *shell) browse(ctx context.Context, keyword string, fetch pageFunc) error {
	page := 1
	for {
		products, err := fetch(ctx, page, service.DefaultPageSize)
		if err != nil {
			return sh.fail(err)
		}
		if len(products) == 0 && keyword != "" && page == 1 {
			sh.v.message("No products found matching '%s'", keyword)
			return sh.pressEnter()
		}
		sh.v.products(products)
		fmt.Fprintf(sh.v.w, "Page %d\n", page)

		hasNext := len(products) == service.DefaultPageSize
		prompt := "Press Enter to continue"
		if hasNext {
			prompt += ", n for the next page"
		}
		if page > 1 {
			prompt += ", p for the previous page"
		}
		line, err := sh.readLine(prompt + ": ")
		if err != nil {
			return err
		}
		switch strings.ToLower(line) {
		case "n":
			if hasNext {
				page++
			}
		case "p":
			if page > 1 {
				page--
			}
		default:
			return nil
		}
	}
}

func (sh *shell) cartMenu(ctx context.Context) error {
	for {
		choice, err := sh.menu("CART MANAGEMENT",
			"View Cart",
			"Add Product to Cart",
			"Remove Product from Cart",
			"Update Quantity",
			"Checkout",
			"Back to Main Menu",
		)
		if err != nil {
			return err
		}
		switch choice {
		case 1:
			err = sh.viewCart(ctx)
		case 2:
			err = sh.addToCart(ctx)
		case 3:
			err = sh.removeFromCart(ctx)
		case 4:
			err = sh.updateQuantity(ctx)
		case 5:
			err = sh.checkout(ctx)
		case 6:
			return nil
		}
		if err != nil {
			return err
		}
	}
}

func (sh *shell) viewCart(ctx context.Context) error {
	cart := sh.session.Cart()
	lines, err := cart.Items(ctx)
	if err != nil {
		return sh.fail(err)
	}
	sh.v.cart(lines)
	if len(lines) > 0 {
		total, err := cart.Total(ctx)
		if err != nil {
			return sh.fail(err)
		}
		sh.v.success("TOTAL: $%s", total.StringFixed(2))
	}
	return sh.pressEnter()
}

// readProduct prompts for a product code and looks it up.
func (sh *shell) readProduct(ctx context.Context) (*model.Product, error) {
	id, err := sh.readNonEmpty("Enter product code (e.g. P000000001): ")
	if err != nil {
		return nil, err
	}
	return sh.shop.products.Get(ctx, strings.ToUpper(id))
}

func (sh *shell) addToCart(ctx context.Context) error {
	product, err := sh.readProduct(ctx)
	if errors.Is(err, errEndOfInput) {
		return err
	} else if err != nil {
		return sh.fail(err)
	}
	quantity, err := sh.readInt("Enter quantity: ", 1, 999)
	if err != nil {
		return err
	}
	if err := sh.session.Cart().Add(ctx, product.ID, quantity); err != nil {
		return sh.fail(err)
	}
	sh.v.success("Added %d x %s to cart!", quantity, product.Name)
	return sh.pressEnter()
}

func (sh *shell) removeFromCart(ctx context.Context) error {
	product, err := sh.readProduct(ctx)
	if errors.Is(err, errEndOfInput) {
		return err
	} else if err != nil {
		return sh.fail(err)
	}
	if sh.session.Cart().Remove(product.ID) {
		sh.v.success("Removed %s from cart!", product.Name)
	} else {
		sh.v.warning("%s is not in your cart.", product.Name)
	}
	return sh.pressEnter()
}

func (sh *shell) updateQuantity(ctx context.Context) error {
	product, err := sh.readProduct(ctx)
	if errors.Is(err, errEndOfInput) {
		return err
	} else if err != nil {
		return sh.fail(err)
	}
	quantity, err := sh.readInt("Enter quantity (0 removes the product): ", 0, 999)
	if err != nil {
		return err
	}
	if err := sh.session.Cart().Update(ctx, product.ID, quantity); err != nil {
		return sh.fail(err)
	}
	sh.v.success("Updated quantity for %s to %d", product.Name, quantity)
	return sh.pressEnter()
}

func (sh *shell) checkout(ctx context.Context) error {
	cart := sh.session.Cart()
	if cart.IsEmpty() {
		sh.v.warning("Your cart is empty!")
		return sh.pressEnter()
	}
	total, err := cart.Total(ctx)
	if err != nil {
		return sh.fail(err)
	}
	fmt.Fprintf(sh.v.w, "\nTotal Amount: $%s\n", total.StringFixed(2))
	confirmed, err := sh.confirm("Confirm checkout? (y/n): ")
	if err != nil {
		return err
	}
	if !confirmed {
		sh.v.message("Checkout cancelled.")
		return sh.pressEnter()
	}
	order, err := sh.shop.orders.Checkout(ctx, sh.session)
	if err != nil {
		return sh.fail(err)
	}
	sh.v.success("Order placed successfully! Order code: %s", order.Code())
	return sh.pressEnter()
}

func (sh *shell) orderHistory(ctx context.Context) error {
	orders, err := sh.shop.orders.History(ctx, sh.session.User().ID)
	if err != nil {
		return sh.fail(err)
	}
	sh.v.orders(orders)
	return sh.pressEnter()
}

func (sh *shell) bulkMenu(ctx context.Context) error {
	config := sh.app.Params.Config.Ingest
	for {
		choice, err := sh.menu("BULK PRODUCT OPERATIONS",
			fmt.Sprintf("Insert %d Products (Prompt Truncate)", config.TotalRecords),
			"Read All Products",
			"Test Reading Performance",
			"Create Performance Indexes",
			"Back to Main Menu",
		)
		if err != nil {
			return err
		}
		switch choice {
		case 1:
			sh.v.warning("\nThis will insert %d products!", config.TotalRecords)
			var truncate bool
			truncate, err = sh.confirm("Do you want to clear the products table before inserting? (yes/no): ")
			if err != nil {
				return err
			}
			opts := sh.app.SeedOptions()
			opts.Truncate = truncate
			err = sh.app.seed(ctx, sh.shop, opts)
			// The cart may refer to products that no longer exist.
			if truncate {
				sh.session.Cart().Clear()
			}
			err = sh.report(err)
		case 2:
			err = sh.report(sh.app.read(ctx, sh.shop, config.ReadPageSize))
		case 3:
			err = sh.report(sh.app.probe(ctx, sh.shop))
		case 4:
			err = sh.report(sh.app.createIndexes(ctx, sh.shop))
		case 5:
			return nil
		}
		if err != nil {
			return err
		}
	}
}

// report shows the outcome of a bulk operation and waits for the user.
func (sh *shell) report(err error) error {
	if err != nil {
		return sh.fail(err)
	}
	return sh.pressEnter()
}

// fail shows err to the user and waits for Enter. It only returns an error if input ends.
func (sh *shell) fail(err error) error {
	errorColor.Fprintln(sh.v.w, describe(err))
	return sh.pressEnter()
}

func (sh *shell) pressEnter() error {
	_, err := sh.readLine("\nPress Enter to continue...")
	return err
}

func (sh *shell) readLine(prompt string) (string, error) {
	fmt.Fprint(sh.v.w, prompt)
	if !sh.in.Scan() {
		if err := sh.in.Err(); err != nil {
			return "", errors.WithStack(err)
		}
		return "", errEndOfInput
	}
	return strings.TrimSpace(sh.in.Text()), nil
}

func (sh *shell) readNonEmpty(prompt string) (string, error) {
	for {
		line, err := sh.readLine(prompt)
		if err != nil || line != "" {
			return line, err
		}
		fmt.Fprintln(sh.v.w, "Input cannot be empty.")
	}
}

func (sh *shell) readInt(prompt string, min int, max int) (int, error) {
	for {
		line, err := sh.readLine(prompt)
		if err != nil {
			return 0, err
		}
		value, err := strconv.Atoi(line)
		if err != nil {
			fmt.Fprintln(sh.v.w, "Please enter a valid number.")
			continue
		}
		if value < min || value > max {
			fmt.Fprintf(sh.v.w, "Please enter a number between %d and %d.\n", min, max)
			continue
		}
		return value, nil
	}
}

func (sh *shell) confirm(prompt string) (bool, error) {
	line, err := sh.readNonEmpty(prompt)
	if err != nil {
		return false, err
	}
	answer := strings.ToLower(line)
	return answer == "y" || answer == "yes", nil
}

// describe turns service errors into the messages shown in the shell.
func describe(err error) string {
	var (
		merr         *multierror.Error
		invalid      *shoperrors.ErrInvalidArgument
		exists       *shoperrors.ErrAlreadyExists
		notFound     *shoperrors.ErrNotFound
		insufficient *shoperrors.ErrInsufficientStock
	)
	switch {
	case errors.As(err, &merr):
		messages := make([]string, len(merr.Errors))
		for i, e := range merr.Errors {
			messages[i] = describe(e)
		}
		return strings.Join(messages, "\n")
	case errors.As(err, &invalid) && invalid.Message != "":
		return invalid.Message
	case errors.As(err, &exists) && exists.Type == "user":
		return exists.Message + ". Please choose a different username."
	case errors.As(err, &notFound) && notFound.Type == "product":
		return "Product not found with code: " + notFound.Value
	case errors.As(err, &insufficient):
		return fmt.Sprintf("Not enough stock for %s. Available: %d", insufficient.ProductID, insufficient.Available)
	}
	return err.Error()
}
