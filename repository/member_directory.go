package repository

import (
	"context"

	"github.com/luminchurch/chms_end/models"
	"github.com/luminchurch/chms_end/utils"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// MongoMemberDirectory 会友与教区目录的MongoDB实现
type MongoMemberDirectory struct{}

// NewMongoMemberDirectory 创建MongoDB会友目录
func NewMongoMemberDirectory() *MongoMemberDirectory {
	return &MongoMemberDirectory{}
}

// ResolveActiveMember 解析启用状态的会友，不存在或未启用时返回 (nil, nil)
func (d *MongoMemberDirectory) ResolveActiveMember(ctx context.Context, id string) (*models.Member, error) {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		// ID格式不合法等同于查无此人
		return nil, nil
	}

	var member models.Member
	err = Collection(MembersCollection).FindOne(ctx, bson.M{
		"_id":    objID,
		"status": models.MemberStatusActive,
	}).Decode(&member)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, err
	}

	return &member, nil
}

// CreateMember 创建会友记录，返回新记录ID，瞬时错误自动重试
func (d *MongoMemberDirectory) CreateMember(ctx context.Context, member *models.Member) (string, error) {
	res, err := ExecuteDbOperation(func() (interface{}, error) {
		return Collection(MembersCollection).InsertOne(ctx, member)
	}, 3)
	if err != nil {
		return "", err
	}

	member.ID = res.(*mongo.InsertOneResult).InsertedID.(primitive.ObjectID)
	utils.LogDbOperation("insert", MembersCollection, member.VisitorRef, member.ID.Hex())
	return member.ID.Hex(), nil
}

// FindMemberByVisitorRef 按关联的新朋友ID查找会友，不存在时返回 (nil, nil)
func (d *MongoMemberDirectory) FindMemberByVisitorRef(ctx context.Context, visitorID string) (*models.Member, error) {
	var member models.Member
	err := Collection(MembersCollection).FindOne(ctx, bson.M{"visitorRef": visitorID}).Decode(&member)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, err
	}

	return &member, nil
}

// ResolveDistrict 解析教区，不存在时返回 (nil, nil)
func (d *MongoMemberDirectory) ResolveDistrict(ctx context.Context, id string) (*models.District, error) {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, nil
	}

	var district models.District
	err = Collection(DistrictsCollection).FindOne(ctx, bson.M{"_id": objID}).Decode(&district)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, err
	}

	return &district, nil
}

// ResolveUnit 解析小组，不存在时返回 (nil, nil)
func (d *MongoMemberDirectory) ResolveUnit(ctx context.Context, id string) (*models.Unit, error) {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, nil
	}

	var unit models.Unit
	err = Collection(UnitsCollection).FindOne(ctx, bson.M{"_id": objID}).Decode(&unit)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, err
	}

	return &unit, nil
}
