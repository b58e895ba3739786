package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/flicky/printmarket/pkg/model"
)

const (
	usersCollection    = "users"
	productsCollection = "products"
	ordersCollection   = "orders"
	reelsCollection    = "reels"
)

// ConnectMongo dials the deployment and verifies it answers a ping. Order
// placement uses multi-document transactions, so the deployment must be a
// replica set.
func ConnectMongo(ctx context.Context, uri string, timeout time.Duration) (*mongo.Client, error) {
	opts := options.Client().ApplyURI(uri).SetConnectTimeout(timeout).SetServerSelectionTimeout(timeout)
	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("ping mongo: %w", err)
	}
	return client, nil
}

// EnsureMongoIndexes creates the indexes the repositories query by.
func EnsureMongoIndexes(ctx context.Context, db *mongo.Database) error {
	indexes := map[string][]mongo.IndexModel{
		usersCollection: {
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
		productsCollection: {
			{Keys: bson.D{{Key: "createdAt", Value: -1}}},
			{Keys: bson.D{{Key: "seller", Value: 1}, {Key: "createdAt", Value: -1}}},
			{Keys: bson.D{{Key: "featured", Value: 1}, {Key: "createdAt", Value: -1}}},
		},
		ordersCollection: {
			{Keys: bson.D{{Key: "user", Value: 1}, {Key: "createdAt", Value: -1}}},
			{Keys: bson.D{{Key: "items.seller", Value: 1}}},
		},
		reelsCollection: {
			{Keys: bson.D{{Key: "createdAt", Value: -1}}},
		},
	}
	for coll, models := range indexes {
		if _, err := db.Collection(coll).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("create %s indexes: %w", coll, err)
		}
	}
	return nil
}

// NewMongoStore wires every repository to the database.
func NewMongoStore(client *mongo.Client, db *mongo.Database) *Store {
	return &Store{
		Users:    NewMongoUserRepository(db),
		Products: NewMongoProductRepository(db),
		Orders:   NewMongoOrderRepository(client, db),
		Reels:    NewMongoReelRepository(db),
		Ping: func(ctx context.Context) error {
			return client.Ping(ctx, readpref.Primary())
		},
		Close: client.Disconnect,
	}
}

var newestFirst = options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})

// Ids are stored as their canonical string form; a malformed id decodes as uuid.Nil.
func parseUUID(s string) uuid.UUID {
	id, _ := uuid.Parse(s)
	return id
}

func toDecimal128(d decimal.Decimal) (primitive.Decimal128, error) {
	v, err := primitive.ParseDecimal128(d.String())
	if err != nil {
		return primitive.Decimal128{}, fmt.Errorf("encode decimal %s: %w", d, err)
	}
	return v, nil
}

func fromDecimal128(v primitive.Decimal128) decimal.Decimal {
	d, err := decimal.NewFromString(v.String())
	if err != nil {
		return decimal.Zero
	}
	return d
}

type userDoc struct {
	ID        string    `bson:"_id"`
	Name      string    `bson:"name"`
	Email     string    `bson:"email"`
	Password  string    `bson:"password"`
	Role      string    `bson:"role"`
	CreatedAt time.Time `bson:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt"`
}

func toUserDoc(u *model.User) userDoc {
	return userDoc{
		ID: u.ID.String(), Name: u.Name, Email: u.Email, Password: u.Password,
		Role: string(u.Role), CreatedAt: u.CreatedAt, UpdatedAt: u.UpdatedAt,
	}
}

func (d userDoc) model() *model.User {
	return &model.User{
		ID: parseUUID(d.ID), Name: d.Name, Email: d.Email, Password: d.Password,
		Role: model.Role(d.Role), CreatedAt: d.CreatedAt, UpdatedAt: d.UpdatedAt,
	}
}

type dimensionsDoc struct {
	Width  float64 `bson:"width"`
	Height float64 `bson:"height"`
	Depth  float64 `bson:"depth"`
	Unit   string  `bson:"unit"`
}

type reviewDoc struct {
	User      string    `bson:"user"`
	Rating    int       `bson:"rating"`
	Comment   string    `bson:"comment"`
	CreatedAt time.Time `bson:"createdAt"`
}

type productDoc struct {
	ID                    string               `bson:"_id"`
	Seller                string               `bson:"seller"`
	Title                 string               `bson:"title"`
	Description           string               `bson:"description"`
	Images                []string             `bson:"images"`
	ModelFile             string               `bson:"modelFile"`
	Material              string               `bson:"material"`
	ColorOptions          []string             `bson:"colorOptions"`
	Dimensions            dimensionsDoc        `bson:"dimensions"`
	Price                 primitive.Decimal128 `bson:"price"`
	Quantity              int                  `bson:"quantity"`
	EstimatedPrintTime    string               `bson:"estimatedPrintTime"`
	EstimatedShippingTime string               `bson:"estimatedShippingTime"`
	Category              string               `bson:"category"`
	Tags                  []string             `bson:"tags"`
	Featured              bool                 `bson:"featured"`
	Rating                float64              `bson:"rating"`
	Reviews               []reviewDoc          `bson:"reviews"`
	Version               int                  `bson:"version"`
	CreatedAt             time.Time            `bson:"createdAt"`
	UpdatedAt             time.Time            `bson:"updatedAt"`
}

func toProductDoc(p *model.Product) (productDoc, error) {
	price, err := toDecimal128(p.Price)
	if err != nil {
		return productDoc{}, err
	}
	reviews := make([]reviewDoc, 0, len(p.Reviews))
	for _, r := range p.Reviews {
		reviews = append(reviews, reviewDoc{
			User: r.UserID.String(), Rating: r.Rating, Comment: r.Comment, CreatedAt: r.CreatedAt,
		})
	}
	return productDoc{
		ID:           p.ID.String(),
		Seller:       p.SellerID.String(),
		Title:        p.Title,
		Description:  p.Description,
		Images:       p.Images,
		ModelFile:    p.ModelFile,
		Material:     string(p.Material),
		ColorOptions: p.ColorOptions,
		Dimensions: dimensionsDoc{
			Width: p.Dimensions.Width, Height: p.Dimensions.Height,
			Depth: p.Dimensions.Depth, Unit: string(p.Dimensions.Unit),
		},
		Price:                 price,
		Quantity:              p.Quantity,
		EstimatedPrintTime:    p.EstimatedPrintTime,
		EstimatedShippingTime: p.EstimatedShippingTime,
		Category:              p.Category,
		Tags:                  p.Tags,
		Featured:              p.Featured,
		Rating:                p.Rating,
		Reviews:               reviews,
		Version:               p.Version,
		CreatedAt:             p.CreatedAt,
		UpdatedAt:             p.UpdatedAt,
	}, nil
}

func (d productDoc) model() *model.Product {
	reviews := make([]model.Review, 0, len(d.Reviews))
	for _, r := range d.Reviews {
		reviews = append(reviews, model.Review{
			UserID: parseUUID(r.User), Rating: r.Rating, Comment: r.Comment, CreatedAt: r.CreatedAt,
		})
	}
	return &model.Product{
		ID:           parseUUID(d.ID),
		SellerID:     parseUUID(d.Seller),
		Title:        d.Title,
		Description:  d.Description,
		Images:       d.Images,
		ModelFile:    d.ModelFile,
		Material:     model.Material(d.Material),
		ColorOptions: d.ColorOptions,
		Dimensions: model.Dimensions{
			Width: d.Dimensions.Width, Height: d.Dimensions.Height,
			Depth: d.Dimensions.Depth, Unit: model.Unit(d.Dimensions.Unit),
		},
		Price:                 fromDecimal128(d.Price),
		Quantity:              d.Quantity,
		EstimatedPrintTime:    d.EstimatedPrintTime,
		EstimatedShippingTime: d.EstimatedShippingTime,
		Category:              d.Category,
		Tags:                  d.Tags,
		Featured:              d.Featured,
		Rating:                d.Rating,
		Reviews:               reviews,
		Version:               d.Version,
		CreatedAt:             d.CreatedAt,
		UpdatedAt:             d.UpdatedAt,
	}
}

type orderItemDoc struct {
	Product  string               `bson:"product"`
	Seller   string               `bson:"seller"`
	Title    string               `bson:"title"`
	Quantity int                  `bson:"quantity"`
	Color    string               `bson:"color"`
	Price    primitive.Decimal128 `bson:"price"`
}

type orderDoc struct {
	ID           string               `bson:"_id"`
	User         string               `bson:"user"`
	Items        []orderItemDoc       `bson:"items"`
	ShippingInfo model.ShippingInfo   `bson:"shippingInfo"`
	PaymentInfo  model.PaymentInfo    `bson:"paymentInfo"`
	TotalPrice   primitive.Decimal128 `bson:"totalPrice"`
	Status       string               `bson:"status"`
	Version      int                  `bson:"version"`
	CreatedAt    time.Time            `bson:"createdAt"`
	UpdatedAt    time.Time            `bson:"updatedAt"`
}

func toOrderDoc(o *model.Order) (orderDoc, error) {
	total, err := toDecimal128(o.TotalPrice)
	if err != nil {
		return orderDoc{}, err
	}
	items := make([]orderItemDoc, 0, len(o.Items))
	for _, item := range o.Items {
		price, err := toDecimal128(item.Price)
		if err != nil {
			return orderDoc{}, err
		}
		items = append(items, orderItemDoc{
			Product: item.ProductID.String(), Seller: item.SellerID.String(), Title: item.Title,
			Quantity: item.Quantity, Color: item.Color, Price: price,
		})
	}
	return orderDoc{
		ID:           o.ID.String(),
		User:         o.UserID.String(),
		Items:        items,
		ShippingInfo: o.ShippingInfo,
		PaymentInfo:  o.PaymentInfo,
		TotalPrice:   total,
		Status:       string(o.Status),
		Version:      o.Version,
		CreatedAt:    o.CreatedAt,
		UpdatedAt:    o.UpdatedAt,
	}, nil
}

func (d orderDoc) model() *model.Order {
	items := make([]model.OrderItem, 0, len(d.Items))
	for _, item := range d.Items {
		items = append(items, model.OrderItem{
			ProductID: parseUUID(item.Product), SellerID: parseUUID(item.Seller), Title: item.Title,
			Quantity: item.Quantity, Color: item.Color, Price: fromDecimal128(item.Price),
		})
	}
	return &model.Order{
		ID:           parseUUID(d.ID),
		UserID:       parseUUID(d.User),
		Items:        items,
		ShippingInfo: d.ShippingInfo,
		PaymentInfo:  d.PaymentInfo,
		TotalPrice:   fromDecimal128(d.TotalPrice),
		Status:       model.OrderStatus(d.Status),
		Version:      d.Version,
		CreatedAt:    d.CreatedAt,
		UpdatedAt:    d.UpdatedAt,
	}
}

type commentDoc struct {
	User      string    `bson:"user"`
	Text      string    `bson:"text"`
	CreatedAt time.Time `bson:"createdAt"`
}

type reelDoc struct {
	ID          string       `bson:"_id"`
	User        string       `bson:"user"`
	Title       string       `bson:"title"`
	Description string       `bson:"description"`
	VideoURL    string       `bson:"videoUrl"`
	Thumbnail   string       `bson:"thumbnail"`
	Tags        []string     `bson:"tags"`
	Likes       []string     `bson:"likes"`
	Comments    []commentDoc `bson:"comments"`
	CreatedAt   time.Time    `bson:"createdAt"`
	UpdatedAt   time.Time    `bson:"updatedAt"`
}

func toReelDoc(r *model.Reel) reelDoc {
	likes := make([]string, 0, len(r.Likes))
	for _, id := range r.Likes {
		likes = append(likes, id.String())
	}
	comments := make([]commentDoc, 0, len(r.Comments))
	for _, c := range r.Comments {
		comments = append(comments, commentDoc{User: c.UserID.String(), Text: c.Text, CreatedAt: c.CreatedAt})
	}
	return reelDoc{
		ID: r.ID.String(), User: r.UserID.String(), Title: r.Title, Description: r.Description,
		VideoURL: r.VideoURL, Thumbnail: r.Thumbnail, Tags: r.Tags, Likes: likes, Comments: comments,
		CreatedAt: r.CreatedAt, UpdatedAt: r.UpdatedAt,
	}
}

func (d reelDoc) model() *model.Reel {
	likes := make([]uuid.UUID, 0, len(d.Likes))
	for _, id := range d.Likes {
		likes = append(likes, parseUUID(id))
	}
	comments := make([]model.Comment, 0, len(d.Comments))
	for _, c := range d.Comments {
		comments = append(comments, model.Comment{UserID: parseUUID(c.User), Text: c.Text, CreatedAt: c.CreatedAt})
	}
	return &model.Reel{
		ID: parseUUID(d.ID), UserID: parseUUID(d.User), Title: d.Title, Description: d.Description,
		VideoURL: d.VideoURL, Thumbnail: d.Thumbnail, Tags: d.Tags, Likes: likes, Comments: comments,
		CreatedAt: d.CreatedAt, UpdatedAt: d.UpdatedAt,
	}
}
