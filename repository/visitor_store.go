package repository

import (
	"context"
	"time"

	"github.com/luminchurch/chms_end/models"
	"github.com/luminchurch/chms_end/utils"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoVisitorStore 新朋友存储的MongoDB实现
type MongoVisitorStore struct{}

// NewMongoVisitorStore 创建MongoDB新朋友存储
func NewMongoVisitorStore() *MongoVisitorStore {
	return &MongoVisitorStore{}
}

// GetVisitor 按ID查询新朋友
func (s *MongoVisitorStore) GetVisitor(ctx context.Context, id string) (*models.Visitor, error) {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, utils.CreateBadRequestError("新朋友ID格式错误")
	}

	var visitor models.Visitor
	err = Collection(VisitorsCollection).FindOne(ctx, bson.M{"_id": objID}).Decode(&visitor)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, utils.CreateNotFoundError("新朋友")
		}
		return nil, err
	}

	return &visitor, nil
}

// InsertVisitor 插入新朋友记录并回填ID
func (s *MongoVisitorStore) InsertVisitor(ctx context.Context, visitor *models.Visitor) (string, error) {
	res, err := ExecuteDbOperation(func() (interface{}, error) {
		return Collection(VisitorsCollection).InsertOne(ctx, visitor)
	}, 3)
	if err != nil {
		return "", err
	}

	visitor.ID = res.(*mongo.InsertOneResult).InsertedID.(primitive.ObjectID)
	return visitor.ID.Hex(), nil
}

// SaveVisitor 整体覆盖保存新朋友记录，瞬时错误自动重试
func (s *MongoVisitorStore) SaveVisitor(ctx context.Context, visitor *models.Visitor) error {
	res, err := ExecuteDbOperation(func() (interface{}, error) {
		return Collection(VisitorsCollection).ReplaceOne(
			ctx,
			bson.M{"_id": visitor.ID},
			visitor,
		)
	}, 3)
	if err != nil {
		return err
	}
	if res.(*mongo.UpdateResult).MatchedCount == 0 {
		return utils.CreateNotFoundError("新朋友")
	}
	return nil
}

// ListVisitors 按条件查询新朋友列表，最近更新在前
func (s *MongoVisitorStore) ListVisitors(ctx context.Context, filter models.VisitorFilter) ([]models.Visitor, error) {
	query := bson.M{}

	if filter.Keyword != "" {
		query["$or"] = []bson.M{
			{"name": bson.M{"$regex": filter.Keyword, "$options": "i"}},
			{"phone": bson.M{"$regex": filter.Keyword, "$options": "i"}},
		}
	}
	if filter.State != "" {
		query["state"] = filter.State
	}
	if filter.AssignedTo != "" {
		query["assignedTo"] = filter.AssignedTo
	}

	findOptions := options.Find().SetSort(bson.M{"lastUpdateTime": -1})

	cursor, err := Collection(VisitorsCollection).Find(ctx, query, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var visitors []models.Visitor
	if err := cursor.All(ctx, &visitors); err != nil {
		return nil, err
	}
	return visitors, nil
}

// AppendFollowUp 追加跟进记录并回填ID，不提供更新和删除
func (s *MongoVisitorStore) AppendFollowUp(ctx context.Context, record *models.VisitorFollowUpRecord) error {
	res, err := ExecuteDbOperation(func() (interface{}, error) {
		return Collection(VisitorFollowUpsCollection).InsertOne(ctx, record)
	}, 3)
	if err != nil {
		return err
	}

	record.ID = res.(*mongo.InsertOneResult).InsertedID.(primitive.ObjectID)
	return nil
}

// ListFollowUps 按创建时间正序返回某新朋友的跟进记录
func (s *MongoVisitorStore) ListFollowUps(ctx context.Context, visitorID string) ([]models.VisitorFollowUpRecord, error) {
	findOptions := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}, {Key: "_id", Value: 1}})

	cursor, err := Collection(VisitorFollowUpsCollection).Find(ctx, bson.M{"visitorId": visitorID}, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var records []models.VisitorFollowUpRecord
	if err := cursor.All(ctx, &records); err != nil {
		return nil, err
	}
	return records, nil
}

// CountFollowUps 统计某新朋友的跟进记录条数
func (s *MongoVisitorStore) CountFollowUps(ctx context.Context, visitorID string) (int64, error) {
	return Collection(VisitorFollowUpsCollection).CountDocuments(ctx, bson.M{"visitorId": visitorID})
}

// ListDueFollowUps 查询下次跟进提醒日期落在 [from, to) 区间内的跟进记录
func (s *MongoVisitorStore) ListDueFollowUps(ctx context.Context, from, to time.Time) ([]models.VisitorFollowUpRecord, error) {
	query := bson.M{
		"nextFollowUpDate": bson.M{"$gte": from, "$lt": to},
	}

	cursor, err := Collection(VisitorFollowUpsCollection).Find(ctx, query)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var records []models.VisitorFollowUpRecord
	if err := cursor.All(ctx, &records); err != nil {
		return nil, err
	}
	return records, nil
}
