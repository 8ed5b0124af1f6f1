package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"docstore/internal/model"
	"docstore/internal/repository"
)

// CollectionName is the collection holding document records.
const CollectionName = "documents"

// documentRecord is the stored shape. Disk records carry path, embedded
// records carry data; Validate guarantees never both.
type documentRecord struct {
	ID           primitive.ObjectID `bson:"_id,omitempty"`
	Filename     string             `bson:"filename"`
	OriginalName string             `bson:"originalName"`
	MimeType     string             `bson:"mimeType"`
	Size         int64              `bson:"size"`
	Path         string             `bson:"path,omitempty"`
	Data         []byte             `bson:"data,omitempty"`
	UploadedAt   time.Time          `bson:"uploadedAt"`
}

func (r documentRecord) toModel() model.Document {
	loc := model.Location{Kind: model.StorageEmbedded, Data: r.Data}
	if r.Path != "" {
		loc = model.FileLocation(r.Path)
	}
	return model.Document{
		ID:           r.ID.Hex(),
		StoredName:   r.Filename,
		OriginalName: r.OriginalName,
		MimeType:     r.MimeType,
		Size:         r.Size,
		Location:     loc,
		UploadedAt:   r.UploadedAt,
	}
}

// DocumentMongo is a MongoDB implementation of repository.DocumentRepository.
type DocumentMongo struct {
	coll *mongo.Collection
}

// NewDocumentMongo creates a repository over the documents collection of db.
func NewDocumentMongo(db *mongo.Database) *DocumentMongo {
	return &DocumentMongo{coll: db.Collection(CollectionName)}
}

var _ repository.DocumentRepository = (*DocumentMongo)(nil)

// Create inserts a new record under a fresh ObjectID.
func (r *DocumentMongo) Create(ctx context.Context, doc *model.Document) (*model.Document, error) {
	if err := doc.Validate(); err != nil {
		return nil, err
	}

	rec := documentRecord{
		ID:           primitive.NewObjectID(),
		Filename:     doc.StoredName,
		OriginalName: doc.OriginalName,
		MimeType:     doc.MimeType,
		Size:         doc.Size,
		Path:         doc.Location.Path,
		Data:         doc.Location.Data,
		UploadedAt:   doc.UploadedAt,
	}
	if _, err := r.coll.InsertOne(ctx, rec); err != nil {
		return nil, fmt.Errorf("insert document: %w", err)
	}

	out := *doc
	out.ID = rec.ID.Hex()
	return &out, nil
}

// FindByID fetches a record, including inline bytes, by its hex ObjectID.
func (r *DocumentMongo) FindByID(ctx context.Context, id string) (*model.Document, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, repository.ErrNotFound
	}

	var rec documentRecord
	if err := r.coll.FindOne(ctx, bson.M{"_id": oid}).Decode(&rec); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	d := rec.toModel()
	return &d, nil
}

// List returns every record in upload order with inline bytes projected out.
func (r *DocumentMongo) List(ctx context.Context) ([]model.Document, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "uploadedAt", Value: 1}, {Key: "_id", Value: 1}}).
		SetProjection(bson.M{"data": 0})

	cursor, err := r.coll.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var recs []documentRecord
	if err := cursor.All(ctx, &recs); err != nil {
		return nil, err
	}

	items := make([]model.Document, 0, len(recs))
	for _, rec := range recs {
		items = append(items, rec.toModel())
	}
	return items, nil
}

// Delete removes a record by ID.
func (r *DocumentMongo) Delete(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return repository.ErrNotFound
	}

	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}
