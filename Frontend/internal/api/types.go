package api

import (
	"time"

	"github.com/ahinestrog/mybookstore-web/Frontend/internal/pricing"
)

type Deal = pricing.Deal

type Author struct {
	ID    string `json:"_id"`
	Name  string `json:"name"`
	Bio   string `json:"bio,omitempty"`
	Photo string `json:"photo,omitempty"`
	Books []Book `json:"books,omitempty"`
}

type Genre struct {
	ID          string `json:"_id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

type Book struct {
	ID            string        `json:"_id"`
	Title         string        `json:"title"`
	Author        *Author       `json:"author,omitempty"`
	Genres        []Genre       `json:"genres,omitempty"`
	Price         float64       `json:"price"`
	Description   string        `json:"description,omitempty"`
	CoverImage    string        `json:"coverImage,omitempty"`
	Stock         int           `json:"stock"`
	Rating        float64       `json:"rating"`
	NumReviews    int           `json:"numReviews"`
	ISBN          string        `json:"isbn,omitempty"`
	PublishedDate *time.Time    `json:"publishedDate,omitempty"`
	Deal          *pricing.Deal `json:"deal,omitempty"`
}

// AuthorName is safe on books whose author was not populated.
func (b Book) AuthorName() string {
	if b.Author == nil {
		return ""
	}
	return b.Author.Name
}

// GenreIDs lists the ids of b's genres.
func (b Book) GenreIDs() []string {
	out := make([]string, 0, len(b.Genres))
	for _, g := range b.Genres {
		out = append(out, g.ID)
	}
	return out
}

type BookPage struct {
	Books []Book `json:"books"`
	Total int    `json:"total"`
	Page  int    `json:"page"`
	Pages int    `json:"pages"`
}

type BookQuery struct {
	Search   string
	Genre    string
	Author   string
	Sort     string
	Page     int
	Limit    int
	MinPrice float64
	MaxPrice float64
}

type Review struct {
	ID        string    `json:"_id"`
	User      *User     `json:"user,omitempty"`
	Rating    int       `json:"rating"`
	Comment   string    `json:"comment"`
	CreatedAt time.Time `json:"createdAt"`
}

type ReviewInput struct {
	Rating  int    `json:"rating" validate:"required,min=1,max=5"`
	Comment string `json:"comment" validate:"required,max=2000"`
}

type HomeSection struct {
	ID     string `json:"_id"`
	Title  string `json:"title"`
	Type   string `json:"type"`
	Books  []Book `json:"books,omitempty"`
	Genre  *Genre `json:"genre,omitempty"`
	Order  int    `json:"order"`
	Active bool   `json:"isActive"`
}

type HeroSlide struct {
	ID       string `json:"_id"`
	Title    string `json:"title"`
	Subtitle string `json:"subtitle,omitempty"`
	Image    string `json:"image"`
	Link     string `json:"link,omitempty"`
	Order    int    `json:"order"`
	Active   bool   `json:"isActive"`
}

type User struct {
	ID    string `json:"_id"`
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
	Role  string `json:"role,omitempty"`
}

type AuthResult struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

type Credentials struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type Registration struct {
	Name     string `json:"name" validate:"required,max=100"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
	Confirm  string `json:"-" validate:"eqfield=Password"`
}

// CartItem is one stored cart line. A BOGO deal stores the free unit as
// a separate line with IsFreeItem set.
type CartItem struct {
	ID         string        `json:"_id"`
	Book       Book          `json:"book"`
	Quantity   int           `json:"quantity"`
	Price      float64       `json:"price"`
	IsFreeItem bool          `json:"isFreeItem"`
	Deal       *pricing.Deal `json:"deal,omitempty"`
}

type Cart struct {
	Items []CartItem `json:"items"`
}

type Wishlist struct {
	Books []Book `json:"books"`
}

type Address struct {
	Street     string `json:"street" validate:"required"`
	City       string `json:"city" validate:"required"`
	State      string `json:"state"`
	PostalCode string `json:"postalCode" validate:"required"`
	Country    string `json:"country" validate:"required"`
}

type CheckoutRequest struct {
	ShippingAddress Address `json:"shippingAddress"`
	PaymentMethod   string  `json:"paymentMethod" validate:"required,oneof=card cod paypal"`
	Currency        string  `json:"currency,omitempty"`
}

type OrderItem struct {
	Book       Book    `json:"book"`
	Quantity   int     `json:"quantity"`
	Price      float64 `json:"price"`
	IsFreeItem bool    `json:"isFreeItem"`
}

type Order struct {
	ID              string      `json:"_id"`
	Items           []OrderItem `json:"items"`
	Total           float64     `json:"totalAmount"`
	Status          string      `json:"status"`
	PaymentURL      string      `json:"paymentUrl,omitempty"`
	ShippingAddress Address     `json:"shippingAddress"`
	CreatedAt       time.Time   `json:"createdAt"`
}

// Seller inputs. Validation tags are checked before the request is sent.

type BookInput struct {
	Title         string   `json:"title" validate:"required,max=200"`
	AuthorID      string   `json:"author" validate:"required"`
	Genres        []string `json:"genres" validate:"min=1"`
	Price         float64  `json:"price" validate:"gt=0"`
	Description   string   `json:"description" validate:"max=10000"`
	CoverImage    string   `json:"coverImage" validate:"omitempty,url"`
	Stock         int      `json:"stock" validate:"min=0"`
	ISBN          string   `json:"isbn" validate:"omitempty,max=20"`
	PublishedDate string   `json:"publishedDate,omitempty" validate:"omitempty,datetime=2006-01-02"`
}

type AuthorInput struct {
	Name  string `json:"name" validate:"required,max=120"`
	Bio   string `json:"bio" validate:"max=5000"`
	Photo string `json:"photo" validate:"omitempty,url"`
}

type GenreInput struct {
	Name        string `json:"name" validate:"required,max=80"`
	Description string `json:"description" validate:"max=1000"`
}

type DealInput struct {
	Name          string               `json:"name" validate:"required,max=120"`
	Description   string               `json:"description" validate:"max=1000"`
	Type          pricing.DealType     `json:"dealType" validate:"required,oneof=flash_sale bogo seasonal limited_time"`
	DiscountType  pricing.DiscountType `json:"discountType" validate:"required,oneof=percentage fixed"`
	DiscountValue float64              `json:"discountValue" validate:"gte=0"`
	StartDate     time.Time            `json:"startDate" validate:"required"`
	EndDate       time.Time            `json:"endDate" validate:"required,gtfield=StartDate"`
	IsActive      bool                 `json:"isActive"`
	Books         []string             `json:"applicableBooks"`
	Genres        []string             `json:"applicableGenres"`
}

type SectionInput struct {
	Title  string   `json:"title" validate:"required,max=120"`
	Type   string   `json:"type" validate:"required,oneof=featured bestsellers new_arrivals deals genre custom"`
	Books  []string `json:"books"`
	Genre  string   `json:"genre,omitempty"`
	Order  int      `json:"order" validate:"min=0"`
	Active bool     `json:"isActive"`
}

type SlideInput struct {
	Title    string `json:"title" validate:"required,max=120"`
	Subtitle string `json:"subtitle" validate:"max=240"`
	Image    string `json:"image" validate:"required,url"`
	Link     string `json:"link" validate:"omitempty,uri"`
	Order    int    `json:"order" validate:"min=0"`
	Active   bool   `json:"isActive"`
}
