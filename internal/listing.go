package internal

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/aws/aws-sdk-go-v2/service/ec2/types"
)

// ListAvailabilityZones returns the zones visible to the session's region.
func ListAvailabilityZones(ctx context.Context, s *Session) ([]Zone, error) {
	out, err := call(ctx, s.Retry, func() (*ec2.DescribeAvailabilityZonesOutput, error) {
		return s.EC2.DescribeAvailabilityZones(ctx, &ec2.DescribeAvailabilityZonesInput{})
	})
	if err != nil {
		return nil, fmt.Errorf("describing availability zones: %w", err)
	}

	zones := make([]Zone, 0, len(out.AvailabilityZones))
	for _, z := range out.AvailabilityZones {
		zones = append(zones, Zone{
			Name:   aws.ToString(z.ZoneName),
			State:  string(z.State),
			Region: aws.ToString(z.RegionName),
		})
	}
	return zones, nil
}

// ListImages returns the images whose id is one of imageIDs.
func ListImages(ctx context.Context, s *Session, imageIDs ...string) ([]Image, error) {
	out, err := call(ctx, s.Retry, func() (*ec2.DescribeImagesOutput, error) {
		return s.EC2.DescribeImages(ctx, &ec2.DescribeImagesInput{
			Filters: []types.Filter{{
				Name:   aws.String("image-id"),
				Values: imageIDs,
			}},
		})
	})
	if err != nil {
		return nil, fmt.Errorf("describing images: %w", err)
	}

	images := make([]Image, 0, len(out.Images))
	for _, img := range out.Images {
		platform := string(img.Platform)
		if platform == "" {
			platform = aws.ToString(img.PlatformDetails)
		}
		images = append(images, Image{
			ID:           aws.ToString(img.ImageId),
			Name:         aws.ToString(img.Name),
			Platform:     platform,
			CreationDate: parseImageDate(aws.ToString(img.CreationDate)),
		})
	}
	return images, nil
}
